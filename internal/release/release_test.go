package release

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-github/github"
)

func TestParseRef(t *testing.T) {
	tests := []struct {
		in      string
		want    Ref
		wantErr bool
	}{
		{in: "keepkey/keepkey-firmware@v6.1.0/firmware.keepkey.bin",
			want: Ref{Owner: "keepkey", Repo: "keepkey-firmware", Tag: "v6.1.0", Asset: "firmware.keepkey.bin"}},
		{in: "acme/board@latest/ram.bin", want: Ref{Owner: "acme", Repo: "board", Asset: "ram.bin"}},
		{in: "acme/board/ram.bin", want: Ref{Owner: "acme", Repo: "board", Asset: "ram.bin"}},
		{in: "acme/board@v1/dir/ram.bin", want: Ref{Owner: "acme", Repo: "board", Tag: "v1", Asset: "dir/ram.bin"}},
		{in: "acme/board@v1", wantErr: true},
		{in: "acme@v1/ram.bin", wantErr: true},
		{in: "acme/board", wantErr: true},
		{in: "acme/board@v1/", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseRef(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseRef(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("ParseRef(%q) mismatch (-want +got):\n%s", tt.in, diff)
		}
	}
}

func TestFetch(t *testing.T) {
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	mux.HandleFunc("/repos/acme/board/releases/tags/v1", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"tag_name":"v1","assets":[{"name":"other.bin","browser_download_url":"%[1]s/dl/other"},{"name":"ram.bin","browser_download_url":"%[1]s/dl/ram"}]}`, srv.URL)
	})
	mux.HandleFunc("/dl/ram", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte{0x00, 0x08})
	})

	client := github.NewClient(nil)
	base, _ := url.Parse(srv.URL + "/")
	client.BaseURL = base

	got, err := Fetch(context.Background(), client, Ref{Owner: "acme", Repo: "board", Tag: "v1", Asset: "ram.bin"})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if diff := cmp.Diff([]byte{0x00, 0x08}, got); diff != "" {
		t.Errorf("asset mismatch (-want +got):\n%s", diff)
	}

	_, err = Fetch(context.Background(), client, Ref{Owner: "acme", Repo: "board", Tag: "v1", Asset: "rom.bin"})
	if !errors.Is(err, ErrAssetNotFound) {
		t.Errorf("Fetch missing asset = %v, want ErrAssetNotFound", err)
	}
}
