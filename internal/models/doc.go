// Package models defines the ledger records the auditor reads and the values it produces.
//
// # Source Records
//
// These arrive already hydrated from the store (or a JSON snapshot):
//   - Load: one physical cargo movement (a truck ticket)
//   - Contract: a buy or sell agreement that loads are delivered against
//   - SettlementEntry: the split of a load's quantity and value across contracts
//   - Provisioning: a purchase allocation that loads draw down over time
//
// # Derived Values
//
// Built fresh on every audit run and never written back to the source streams:
//   - Operation: loads that share an operation id, with totals and a derived status
//   - Finding: one detected problem, with a category, severity and affected ids
//   - Report: findings, operations, summary counts and general metrics
//
// # Design Principles
//
//  1. **Optional means optional**: absent values are nil pointers, null decimals or empty
//     reference strings, never zero values pretending to be data
//  2. **References are plain ids**: a dangling reference is a finding, not a decode error
//  3. **Money is decimal**: freight, grain and prices use shopspring/decimal
package models
