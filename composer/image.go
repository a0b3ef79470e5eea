package composer

import (
	"chat-app/errors"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
)

// maxImageSize bounds what a picked image may weigh.
const maxImageSize = 20 << 20

// LocalImageSource reads picked images from a file path, a file:// URI or
// an http(s):// URL.
type LocalImageSource struct {
	client *http.Client
}

func NewLocalImageSource(client *http.Client) *LocalImageSource {
	if client == nil {
		client = http.DefaultClient
	}
	return &LocalImageSource{client: client}
}

func (s *LocalImageSource) Fetch(ctx context.Context, uri string) ([]byte, error) {
	switch {
	case strings.HasPrefix(uri, "http://"), strings.HasPrefix(uri, "https://"):
		return s.download(ctx, uri)
	case strings.HasPrefix(uri, "file://"):
		u, err := url.Parse(uri)
		if err != nil {
			return nil, err
		}
		return readFile(u.Path)
	default:
		return readFile(uri)
	}
}

func (s *LocalImageSource) download(ctx context.Context, uri string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: %s", uri, resp.Status)
	}
	if resp.ContentLength > maxImageSize {
		return nil, fmt.Errorf("%w: %s announces %d bytes", errors.ErrImageTooLarge, uri, resp.ContentLength)
	}
	// One byte past the limit tells a full-size body from an oversize one
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxImageSize {
		return nil, fmt.Errorf("%w: %s", errors.ErrImageTooLarge, uri)
	}
	return data, nil
}

func readFile(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.Size() > maxImageSize {
		return nil, fmt.Errorf("%w: %s weighs %d bytes", errors.ErrImageTooLarge, path, info.Size())
	}
	return os.ReadFile(path)
}
