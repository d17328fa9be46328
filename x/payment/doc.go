/*
Package payment implements token vesting and streaming payments.

A creator locks an amount of coins and splits it into one or more
interval based release schedules, distributed among any number of
receivers. Each receiver is paid with an entitlement title - a bearer
token carrying the full payment state in its attribute payload. Claiming
vested funds burns the presented title quantity and, when the schedule is
not yet exhausted, re-mints a title with the release start advanced to
the last completed interval boundary. The title is the account: there is
no per-receiver record in the store.

When a payment is created as cancelable, a companion cancellation title
is minted to the creator. Whoever holds it may cancel the payment at any
time, collecting the unvested remainder. The only conventionally stored
mutable state is the cancellation ledger, mapping payment id to the
cancellation timestamp, consulted by every subsequent claim.
*/
package payment
