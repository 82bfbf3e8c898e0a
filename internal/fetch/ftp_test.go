package fetch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFTPURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		url      string
		wantHost string
		wantPath string
		wantErr  bool
	}{
		{
			name:     "standard ftp url",
			url:      "ftp://ftp.rigsarkivet.dk/pub/blegdams/scans.zip",
			wantHost: "ftp.rigsarkivet.dk:21",
			wantPath: "/pub/blegdams/scans.zip",
		},
		{
			name:     "explicit port preserved",
			url:      "ftp://archive.example.dk:2121/journals/1887.zip",
			wantHost: "archive.example.dk:2121",
			wantPath: "/journals/1887.zip",
		},
		{
			name:    "http scheme rejected",
			url:     "http://example.dk/scans.zip",
			wantErr: true,
		},
		{
			name:    "empty path",
			url:     "ftp://ftp.example.dk",
			wantErr: true,
		},
		{
			name:    "invalid url",
			url:     "://bad",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			host, path, err := parseFTPURL(tt.url)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantHost, host)
			assert.Equal(t, tt.wantPath, path)
		})
	}
}

func TestNewFTPFetcher_DefaultTimeout(t *testing.T) {
	t.Parallel()

	f := NewFTPFetcher(FTPOptions{})
	assert.Equal(t, 30*time.Second, f.opts.Timeout)
}
