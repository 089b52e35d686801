/*
Package dccctl is a set of tools to control a model railway through an Arduino DCC++ base station.

The dccpp command is an interactive shell, which can also run a single command from its arguments.
The dcchttpd command serves the same station commands over HTTP.
Both are built on the command shell in the cli package.
*/
package dccctl
