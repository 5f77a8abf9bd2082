// Package models defines the core domain models for fintrack.
//
// # Records
//
// The ledger is made of three record kinds, all owned by exactly one user:
//   - IncomeRecord: money coming in, grouped by a "YYYY-MM" Period
//   - ExpenseRecord: money going out, grouped by the month of its calendar Date
//   - SavingsGoal: a target the user saves towards; SavedAmount grows through allocation
//
// There is no sharing between users. Every store call is scoped by the owner's ID.
//
// # Identifiers
//
// IDs are uuid.UUID values everywhere inside the module. String IDs coming from
// clients are parsed once at the RPC boundary and rejected there when malformed,
// so business logic never compares strings against numbers.
//
// # Money
//
// Amounts are decimal.Decimal. Percentages derived from amounts are float64 and
// are returned unrounded; rounding for display is the client's job.
package models
