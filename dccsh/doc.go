// Package dccsh is the interactive dccpp tool, which controls a DCC++ station from a command shell.
package dccsh
