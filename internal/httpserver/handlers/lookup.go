package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/leasetrail/internal/domain"
	"github.com/MrSnakeDoc/leasetrail/internal/grammar"
	"github.com/MrSnakeDoc/leasetrail/internal/httpserver/deps"
	"github.com/MrSnakeDoc/leasetrail/internal/logger"
)

type lookupResponse struct {
	IP      string `json:"ip"`
	At      string `json:"at"`
	MAC     string `json:"mac"`
	Name    string `json:"name,omitempty"`
	Allowed bool   `json:"allowed"`
}

type runResponse struct {
	Start string `json:"start"`
	MAC   string `json:"mac"`
	Name  string `json:"name,omitempty"`
}

type timelineResponse struct {
	IP   string        `json:"ip"`
	Runs []runResponse `json:"runs"`
}

type deviceResponse struct {
	MAC     string   `json:"mac"`
	Name    string   `json:"name"`
	Allowed bool     `json:"allowed"`
	IPs     []string `json:"ips"`
}

// Lookup answers which device held ?ip= strictly before ?at=
// (YYYY:MM:DD-hh:mm:ss, default now).
func Lookup(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := strings.TrimSpace(r.URL.Query().Get("ip"))
		if ip == "" {
			writeError(w, http.StatusBadRequest, "missing ip")
			return
		}

		at, err := queryTime(d, r.URL.Query().Get("at"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad at: "+err.Error())
			return
		}

		mac, ok := d.Index.Lookup(ip, at)
		if !ok {
			d.Logger.Debug("lookup miss", logger.String("ip", ip), logger.String("at", at.String()))
			writeError(w, http.StatusNotFound, "no owner")
			return
		}

		resp := lookupResponse{IP: ip, At: at.String(), MAC: mac}
		resp.Name, resp.Allowed = describe(d, mac)
		writeJSON(w, http.StatusOK, resp)
	}
}

// Timeline returns every ownership run of {ip}.
func Timeline(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := chi.URLParam(r, "ip")
		runs := d.Index.Timeline(ip)
		if len(runs) == 0 {
			writeError(w, http.StatusNotFound, "unknown ip")
			return
		}

		resp := timelineResponse{IP: ip, Runs: make([]runResponse, len(runs))}
		for i, run := range runs {
			name, _ := d.Directory.Name(run.MAC)
			resp.Runs[i] = runResponse{Start: run.Start.String(), MAC: run.MAC, Name: name}
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// Device returns the name of {mac} and every IP it ever held.
func Device(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mac := chi.URLParam(r, "mac")
		name, ok := d.Directory.Name(mac)
		if !ok {
			writeError(w, http.StatusNotFound, "unknown device")
			return
		}

		resp := deviceResponse{MAC: mac, Name: name, IPs: []string{}}
		_, resp.Allowed = describe(d, mac)
		for _, ip := range d.Index.IPs() {
			for _, run := range d.Index.Timeline(ip) {
				if run.MAC == mac {
					resp.IPs = append(resp.IPs, ip)
					break
				}
			}
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func queryTime(d deps.Deps, raw string) (domain.Timestamp, error) {
	if raw == "" {
		now := d.Now().UTC()
		return domain.NewTimestamp(now.Year(), int(now.Month()), now.Day(), now.Hour(), now.Minute(), now.Second())
	}
	return grammar.ParseTimestamp(raw)
}

// describe returns the directory name of mac and whether its traffic would
// be kept by the correlator.
func describe(d deps.Deps, mac string) (string, bool) {
	name, ok := d.Directory.Name(mac)
	if !ok {
		return "", false
	}
	return name, d.AllowList != nil && d.AllowList.Contains(strings.ToLower(name))
}
