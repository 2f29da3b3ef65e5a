/*
Package registry holds the family and settings-type handlers registered by
the modules/ packages at startup.

A FamilyHandler describes one object family's contract: the key prefix its
objects must carry, the cty type their attributes must convert to, and the
account features the family depends on. Blueprint validation is a parity
check between the loaded blueprint and these contracts, so a blueprint
using an unregistered family or a malformed key fails before anything
touches the network.
*/
package registry
