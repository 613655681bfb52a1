// Package mongo implements the interface for MongoDB.
package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	mgo "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tarancss/solview/lib/store"
)

// Database is the name of the database holding one collection of lookups per network.
const Database = "lookups"

const timeout = 5 * time.Second

// Mongo implements a connection to a MongoDB database.
type Mongo struct {
	c *mgo.Client
}

// New returns a Mongo client connection to the specified MongoDB database uri.
func New(uri string) (*Mongo, error) {
	// get a client
	c, err := mgo.NewClient(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("cannot connect to mongo DB in %s: %w", uri, err)
	}
	// connect client
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err = c.Connect(ctx); err != nil {
		return nil, fmt.Errorf("error connecting to mongo DB: %w", err)
	}

	return &Mongo{c: c}, nil
}

// CloseMongo will close a database connection. Must be called at termination time.
func (m *Mongo) CloseMongo() error {
	return m.c.Disconnect(context.Background())
}

// AddLookup saves a lookup, replacing the previous lookup of the same address.
func (m *Mongo) AddLookup(net string, l store.Lookup) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	_, err := m.c.Database(Database).Collection(net).UpdateOne(ctx,
		bson.M{"address": l.Address}, // filter
		bson.D{ // update
			{
				Key: "$set", Value: bson.D{
					{Key: "address", Value: l.Address},
					{Key: "lamports", Value: int64(l.Lamports)},
					{Key: "found", Value: l.Found},
					{Key: "ts", Value: l.TS},
				},
			},
		},
		options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("could not save lookup in db: %w", err)
	}

	return nil
}

// mongoLookup stores lamports as int64, the widest integer BSON has.
type mongoLookup struct {
	Address  string    `bson:"address"`
	Lamports int64     `bson:"lamports"`
	Found    bool      `bson:"found"`
	TS       time.Time `bson:"ts"`
}

// GetLookups returns up to limit lookups of net, most recent first. A limit <= 0 returns all of them.
func (m *Mongo) GetLookups(net string, limit int) ([]store.Lookup, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "ts", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	docs, err := m.c.Database(Database).Collection(net).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("error getting lookups from mongo DB: %w", err)
	}
	defer docs.Close(ctx)

	ls := []store.Lookup{}

	for docs.Next(ctx) {
		var ml mongoLookup
		if err = docs.Decode(&ml); err != nil {
			return nil, fmt.Errorf("error decoding lookup: %w", err)
		}

		ls = append(ls, store.Lookup{Address: ml.Address, Lamports: uint64(ml.Lamports), Found: ml.Found, TS: ml.TS})
	}

	return ls, docs.Err()
}

// DeleteLookups deletes all the lookups of net.
func (m *Mongo) DeleteLookups(net string) error {
	return m.c.Database(Database).Collection(net).Drop(context.Background())
}
