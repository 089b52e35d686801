// Package logx connects RFC 5424 (syslog) level numbers to [log/slog], with a coloured [github.com/charmbracelet/log] backend.
package logx
