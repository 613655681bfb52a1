// Package solview and its sub-packages implement a read-only account explorer for Solana clusters.
/*
solview serves a small web front-end from a single process. A user picks a network, searches an account by address
and gets its details: balance, owner, executable flag, rent epoch, data size and latest transactions.

Architecture

The explorer service (package explorer) routes /{network} to the account search view and
/{network}/account/{address} to the account detail view. "/" redirects to the default network. The same lookups are
available as JSON under /api.

A network segment in the URL selects an RPC endpoint (package lib/block): the public endpoints of devnet, testnet,
mainnet-beta and localnet are built in, and the JSON config file can override them or add private nodes. The explorer
holds exactly one active connection (package lib/connection). It is created on the first request to a network and
replaced whenever a request names another network. Every request keeps the connection it was bound to, so a switch
made by another request does not affect it.

Lookups go through the Solana RPC client library (package lib/block/solana). Nothing is retried or cached: RPC
errors are shown to the user as they come.

Every account lookup is saved to a history of recently viewed accounts (package lib/store: in memory, MongoDB or
PostgreSQL) and can be published to a message broker (package lib/msg, AMQP). Both are configured in the JSON config
file or with SOLVIEW_ OS ENV variables (package lib/config).

The service can be monitored via a Prometheus API by setting the flag "-m" at startup.

Usage

	solview -c cmd/conf.json
	solview networks
*/
package solview
