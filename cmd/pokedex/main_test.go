package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAPI keeps one user's ids in memory.
func fakeAPI(t *testing.T) *httptest.Server {
	t.Helper()
	saved := map[int]bool{}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/pokemon", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.Method {
		case http.MethodGet:
			if id := r.URL.Query().Get("id"); id != "" {
				fmt.Fprintf(w, `{"pokemon_id":%s,"url":"/pokemon/%s/pm00%s_00_00.dae","model_type":"dae","storage_type":"local","file_exists":true}`, id, id, id)
				return
			}
			list := []map[string]any{}
			for id := range saved {
				list = append(list, map[string]any{"pokemon_id": id, "added_at": "2026-01-02T03:04:05Z"})
			}
			_ = json.NewEncoder(w).Encode(map[string]any{"pokemon": list})
		case http.MethodPost:
			var body struct {
				PokemonID int `json:"pokemonId"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			saved[body.PokemonID] = true
			fmt.Fprint(w, `{"success":true,"message":"pokemon added"}`)
		case http.MethodDelete:
			var id int
			fmt.Sscan(r.URL.Query().Get("pokemonId"), &id)
			if !saved[id] {
				w.WriteHeader(http.StatusNotFound)
				fmt.Fprint(w, `{"error":"pokemon not found"}`)
				return
			}
			delete(saved, id)
			fmt.Fprint(w, `{"success":true,"message":"pokemon removed"}`)
		}
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestRun_Commands(t *testing.T) {
	srv := fakeAPI(t)
	o := options{api: srv.URL + "/api", user: "u1"}
	ctx := context.Background()

	var out bytes.Buffer
	require.NoError(t, run(ctx, &out, o, []string{"list"}))
	assert.Contains(t, out.String(), "no saved pokemon")

	out.Reset()
	require.NoError(t, run(ctx, &out, o, []string{"add", "25"}))
	assert.Contains(t, out.String(), "pokemon added")
	assert.Contains(t, out.String(), "[25]")

	out.Reset()
	require.NoError(t, run(ctx, &out, o, []string{"add", "25"}))
	assert.Contains(t, out.String(), "pokemon already saved")

	out.Reset()
	require.NoError(t, run(ctx, &out, o, []string{"list"}))
	assert.Contains(t, out.String(), "#25")

	out.Reset()
	require.NoError(t, run(ctx, &out, o, []string{"model", "25"}))
	assert.Contains(t, out.String(), "/pokemon/25/")

	out.Reset()
	require.NoError(t, run(ctx, &out, o, []string{"remove", "25"}))
	assert.Contains(t, out.String(), "pokemon removed")

	assert.Error(t, run(ctx, &out, o, []string{"remove", "25"}))
}

func TestRun_BadArguments(t *testing.T) {
	ctx := context.Background()
	o := options{api: "http://127.0.0.1:1/api", user: "u1"}

	tests := [][]string{
		{"add"},
		{"add", "pika"},
		{"remove", "0"},
		{"evolve", "25"},
	}
	for _, args := range tests {
		t.Run(fmt.Sprint(args), func(t *testing.T) {
			assert.Error(t, run(ctx, &bytes.Buffer{}, o, args))
		})
	}
}

func TestParseArgs(t *testing.T) {
	o, args, err := parseArgs([]string{"-user", "u1", "-email", "a@b.c", "-name", "A", "add", "7"})
	require.NoError(t, err)
	assert.Equal(t, "u1", o.user)
	assert.Equal(t, "a@b.c", o.profile.Email)
	assert.Equal(t, []string{"add", "7"}, args)

	_, _, err = parseArgs([]string{"-user", "u1"})
	assert.Error(t, err)
}
