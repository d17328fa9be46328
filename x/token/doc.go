/*
Package token implements semi fungible token instances.

A token instance is identified by a ticker and a nonce. Every instance
carries an immutable attribute payload assigned at issue time and a supply
that holders own fractions of. Instances of the same ticker share nothing
but the ticker, transferring units of one instance never touches another.

Other packages use the controller to issue, move and burn instances. The
only external operation is the transfer of held units.
*/
package token
