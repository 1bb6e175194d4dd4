// Package projects stores units of work an account tracks, optionally
// linked to one of its clients.
//
// A project's client_id must name a client owned by the same user;
// otherwise the store returns ErrUnknownClient.
package projects
