/*
Package edgeconfig reads token records from a Vercel Edge Config, so a
fresh deployment can start with the operator's token set without shipping
the store file. Seeding only ever fills an empty store; local records are
never overwritten by the remote copy.
*/
package edgeconfig
