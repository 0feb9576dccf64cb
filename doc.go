// Package progfin implements the financial analytics core for program
// management: Earned Value Management (EVM) metrics and forecasts, immutable
// historical snapshots for trend analysis, and budget allocation and
// reconciliation over a ledger of budgets, transactions, and cash flows.
//
// The package is organised around a few engines that share a row-oriented
// store (see [RowStore]):
//
//   - [Compute] and [Health] derive EVM metrics and a health assessment from
//     the four base measures (PV, EV, AC, BAC).
//   - [ForecastCost], [ForecastCompletionDate], [Scenarios] and
//     [RequiredPerformance] project completion cost and date.
//   - [SnapshotStore] persists immutable EVM captures and compares them
//     period over period.
//   - [AllocationLedger] performs budget lifecycle operations, including a
//     compensating two-step reallocation.
//   - [ReconciliationEngine] cross-checks transactions against cash flows
//     and budgets and reports discrepancies.
//
// All engines take explicit store handles and a context.Context; there is no
// package-level state. The store is not transactional: concurrent writers to
// the same budget must be serialized by the caller.
//
// This package serves as the foundational logic for the `pfa` command-line
// tool.
package progfin
