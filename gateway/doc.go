/*
Package gateway is the dcchttpd server, which exposes a DCC++ station as a tiny HTTP API.

Every command is a GET request where the path is the command and its arguments.

	GET /power/on
	GET /point/12/1
	GET /throttle/3/-40
	GET /light/3/on

The reply is always a JSON object with a boolean "status" field.
Commands that can't run because of invalid arguments reply with status false and an "error" field.
*/
package gateway
