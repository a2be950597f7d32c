/*
Package sensorpush is a client for the SensorPush cloud API.

Summary

The API is authenticated in two steps: the account email and password are
exchanged for an authorization code, which is then exchanged for a short-lived
access token. The Client does both lazily on the first data request and
repeats them when either one gets too old.

Gateways, sensors and samples are retrieved with POST requests carrying the
access token. The API asks clients not to poll more than once a minute, so the
Client spaces data requests by a minimum interval, either waiting or failing
with ErrRateLimited.
*/
package sensorpush
