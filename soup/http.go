package soup

import (
	"bufio"
	"bytes"
	"context"
	"crypto/sha1"
	"crypto/tls"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"net/http/httputil"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/nw0220/Jumony/util"
)

type Cache interface {
	Key(*http.Request) (string, error)
	Get(string, *http.Request) (*http.Response, error)
	Set(string, *http.Request, *http.Response) error
}

// Transport fetches documents. Failed requests and 5xx responses are retried
// RetryCount times, RetryDelay apart. Only GET requests are cached.
type Transport struct {
	Transport  http.RoundTripper
	RetryCount int
	RetryDelay time.Duration
	Cache      Cache
	UserAgent  string
	OnReq      func(*http.Request)
}

type FileCache struct{ Root string }

var invalidFileNameChars = regexp.MustCompile(`[^-_0-9a-zA-Z]+`)
var errServer = errors.New("server error")

func (t Transport) Client() *http.Client {
	if t.Transport == nil {
		t.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{MinVersion: tls.VersionTLS12},
		}
	}
	return &http.Client{Transport: &t}
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	k, cache := "", t.Cache != nil && req.Method == http.MethodGet
	if cache {
		key, err := t.Cache.Key(req)
		if err != nil {
			return nil, err
		}
		k = key
		if res, err := t.Cache.Get(k, req); res != nil || (err != nil && !os.IsNotExist(err)) {
			util.Debugf(req.Context(), "cache hit %s", req.URL)
			return res, err
		}
	}
	if t.OnReq != nil {
		t.OnReq(req)
	}
	if t.UserAgent != "" {
		req.Header.Set("User-Agent", t.UserAgent)
	}
	res, err := util.RetryContext(req.Context(), func(ctx context.Context) (*http.Response, error) {
		return t.roundTrip(req.WithContext(ctx))
	}, t.RetryCount, t.RetryDelay)
	if err != nil {
		return nil, err
	}
	if res.StatusCode < 400 && cache {
		if err := t.Cache.Set(k, req, res); err != nil {
			util.Errorf(req.Context(), "cache set %s: %v", req.URL, err)
		}
	}
	return res, nil
}

func (t *Transport) roundTrip(req *http.Request) (*http.Response, error) {
	res, err := t.Transport.RoundTrip(req)
	if err != nil {
		return nil, err
	} else if res.StatusCode >= 500 {
		res.Body.Close()
		return nil, fmt.Errorf("%s: %w: %d", req.URL, errServer, res.StatusCode)
	}
	return res, nil
}

func (c *FileCache) Key(req *http.Request) (string, error) {
	key := fmt.Sprintf("%s_%s_%s", req.Method, req.URL.Host, req.URL.Path)
	key = invalidFileNameChars.ReplaceAllString(key, "_")
	if len(key) > 40 {
		key = key[:40]
	}
	hash := sha1.New()
	hash.Write([]byte(req.Method + "::" + req.URL.String()))
	return filepath.Join(c.Root, key+hex.EncodeToString(hash.Sum(nil))), nil
}

func (c *FileCache) Get(k string, req *http.Request) (*http.Response, error) {
	bs, err := os.ReadFile(k)
	if err != nil {
		return nil, err
	}
	vs := bytes.SplitN(bs, []byte("\n"), 2)
	if len(vs) != 2 {
		return nil, fmt.Errorf("invalid cache entry %q", k)
	}
	return http.ReadResponse(bufio.NewReader(bytes.NewReader(vs[1])), req)
}

func (c *FileCache) Set(k string, req *http.Request, res *http.Response) error {
	bs, err := httputil.DumpResponse(res, true)
	if err != nil {
		return err
	}
	bs = append([]byte(req.URL.String()+"\n"), bs...)
	return errors.Join(os.MkdirAll(c.Root, 0755), os.WriteFile(k, bs, 0644))
}
