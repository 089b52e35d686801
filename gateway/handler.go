package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/saylorsolutions/dccctl/dccpp"
)

const (
	HeaderContentType = "Content-Type"
	ContentTypeJSON   = "application/json; charset=UTF-8"

	throttleRegister = 1
)

var (
	ErrNoCommand = errors.New("no command defined")
	ErrStation   = errors.New("station error")
)

// Station is the part of a DCC++ station the gateway can drive.
type Station interface {
	Power(on bool) error
	Turnout(addr, state int) error
	Throttle(register, cab, speed int) error
	Light(cab int, on bool) error
}

// Response is the JSON body of every reply. Extra fields like "power" or "error" are added by commands.
type Response map[string]any

func (r Response) fail(format string, args ...any) bool {
	r["error"] = fmt.Sprintf(format, args...)
	return false
}

// CommandFunc runs a gateway command with the path segments after its name.
// The returned bool is reported as "status". A returned error is a station failure.
type CommandFunc func(st Station, args []string, resp Response) (bool, error)

// Handler maps GET /<cmd>/<args...> to station commands.
type Handler struct {
	station  Station
	log      *slog.Logger
	commands map[string]CommandFunc
}

func NewHandler(st Station, log *slog.Logger) *Handler {
	if st == nil {
		panic("nil station")
	}
	if log == nil {
		log = slog.Default()
	}
	return &Handler{
		station: st,
		log:     log,
		commands: map[string]CommandFunc{
			"power":    doPower,
			"point":    doPoint,
			"throttle": doThrottle,
			"light":    doLight,
		},
	}
}

// Commands lists the names of the supported commands in sorted order.
func (h *Handler) Commands() []string {
	names := make([]string, 0, len(h.commands))
	for name := range h.commands {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// ParsePath splits a request path into the command and its arguments, ignoring empty segments.
func ParsePath(path string) (string, []string, error) {
	var parts []string
	for _, part := range strings.Split(path, "/") {
		if len(part) > 0 {
			parts = append(parts, part)
		}
	}
	if len(parts) == 0 {
		return "", nil, ErrNoCommand
	}
	return parts[0], parts[1:], nil
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeJSON(w, http.StatusMethodNotAllowed, Response{"status": false, "error": "Method not allowed!"})
		return
	}
	name, args, err := ParsePath(r.URL.Path)
	if err != nil {
		writeJSON(w, http.StatusNotFound, Response{"status": false, "error": "No command defined!"})
		return
	}
	cmd, ok := h.commands[name]
	if !ok {
		writeJSON(w, http.StatusNotFound, Response{"status": false, "error": fmt.Sprintf("Command '%s' not found!", name)})
		return
	}
	h.log.Debug("Gateway command", "command", name, "args", strings.Join(args, " "), "request", RequestID(r.Context()))
	resp := Response{}
	status, err := cmd(h.station, args, resp)
	if err != nil {
		h.log.Error("Station command failed", "command", name, "error", err, "request", RequestID(r.Context()))
		resp["status"] = false
		resp["error"] = fmt.Errorf("%w: %v", ErrStation, err).Error()
		writeJSON(w, http.StatusInternalServerError, resp)
		return
	}
	resp["status"] = status
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, statusCode int, resp Response) {
	out, err := json.Marshal(resp)
	if err != nil {
		statusCode = http.StatusInternalServerError
		out = []byte(`{"status":false}`)
	}
	w.Header().Set(HeaderContentType, ContentTypeJSON)
	w.Header().Set("Content-Length", strconv.Itoa(len(out)))
	w.WriteHeader(statusCode)
	_, _ = w.Write(out)
}

func doPower(st Station, args []string, resp Response) (bool, error) {
	if len(args) == 0 {
		resp["power"] = "unknown"
		return false, nil
	}
	switch strings.ToLower(args[0]) {
	case "1", "true", "on":
		return true, st.Power(true)
	default:
		return true, st.Power(false)
	}
}

func doPoint(st Station, args []string, resp Response) (bool, error) {
	if len(args) != 2 {
		return resp.fail("Invalid number of arguments!"), nil
	}
	point, err := strconv.Atoi(args[0])
	if err != nil {
		return resp.fail("Invalid point address '%s'!", args[0]), nil
	}
	position, err := strconv.Atoi(args[1])
	if err != nil {
		return resp.fail("Invalid position argument '%s'!", args[1]), nil
	}
	if position != 0 && position != 1 {
		return resp.fail("Position must be 0 or 1!"), nil
	}
	return true, st.Turnout(point, position)
}

func doThrottle(st Station, args []string, resp Response) (bool, error) {
	if len(args) != 2 {
		return resp.fail("Invalid number of arguments!"), nil
	}
	cab, err := strconv.Atoi(args[0])
	if err != nil {
		return resp.fail("Invalid cab address '%s'!", args[0]), nil
	}
	speed, err := strconv.Atoi(args[1])
	if err != nil {
		return resp.fail("Invalid speed argument '%s'!", args[1]), nil
	}
	if speed < -dccpp.MaxSpeed || speed > dccpp.MaxSpeed {
		return resp.fail("Speed must be from -%d to %d!", dccpp.MaxSpeed, dccpp.MaxSpeed), nil
	}
	return true, st.Throttle(throttleRegister, cab, speed)
}

func doLight(st Station, args []string, resp Response) (bool, error) {
	if len(args) != 2 {
		return resp.fail("Invalid number of arguments!"), nil
	}
	cab, err := strconv.Atoi(args[0])
	if err != nil {
		return resp.fail("Invalid cab address '%s'!", args[0]), nil
	}
	switch strings.ToLower(args[1]) {
	case "1", "true", "on":
		return true, st.Light(cab, true)
	case "0", "false", "off":
		return true, st.Light(cab, false)
	default:
		return resp.fail("Invalid light state '%s'!", args[1]), nil
	}
}
