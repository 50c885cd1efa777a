package storage

import (
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"

	log "github.com/sirupsen/logrus"
	"golang.org/x/net/publicsuffix"
)

// Jar is an http.CookieJar that writes every cookie the server sets through
// to the Store and starts out with whatever the Store already holds.
type Jar struct {
	store *Store

	mu    sync.Mutex
	inner *cookiejar.Jar
}

func NewJar(store *Store, serverURL string) (*Jar, error) {
	j := &Jar{store: store}
	if err := j.reset(); err != nil {
		return nil, err
	}
	u, err := url.Parse(serverURL)
	if err != nil {
		return nil, err
	}
	saved, err := store.Cookies(origin(u))
	if err != nil {
		return nil, err
	}
	if len(saved) > 0 {
		j.inner.SetCookies(u, saved)
	}
	return j, nil
}

func (j *Jar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.mu.Lock()
	inner := j.inner
	j.mu.Unlock()
	inner.SetCookies(u, cookies)

	for _, c := range cookies {
		if err := j.store.SaveCookie(origin(u), c); err != nil {
			log.WithError(err).WithField("cookie", c.Name).Warn("persist cookie failed")
		}
	}
}

func (j *Jar) Cookies(u *url.URL) []*http.Cookie {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.inner.Cookies(u)
}

// Clear forgets every cookie for serverURL, in memory and on disk.
func (j *Jar) Clear(serverURL string) error {
	u, err := url.Parse(serverURL)
	if err != nil {
		return err
	}
	if err := j.store.ClearCookies(origin(u)); err != nil {
		return err
	}
	return j.reset()
}

func (j *Jar) reset() error {
	inner, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return err
	}
	j.mu.Lock()
	j.inner = inner
	j.mu.Unlock()
	return nil
}

func origin(u *url.URL) string {
	return u.Scheme + "://" + u.Host
}
