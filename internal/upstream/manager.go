package upstream

import (
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/soley-bot/acadex-sub007/internal/config"
)

type Target struct {
	URL *url.URL
}

// Upstream is a named backend with one or more targets and a dedicated client.
type Upstream struct {
	Name    string
	Targets []Target
	Client  *http.Client
	picker  *roundRobin
}

// Next returns the target to use for the next request, rotating across
// replicas.
func (u *Upstream) Next() Target {
	return u.Targets[u.picker.next(len(u.Targets))]
}

// Manager holds the configured upstreams. The set is fixed at startup, so
// lookups are lock-free.
type Manager struct {
	upstreams map[string]*Upstream
}

func NewManager(cfgs []config.UpstreamConfig) (*Manager, error) {
	m := &Manager{upstreams: make(map[string]*Upstream)}
	for _, uc := range cfgs {
		if uc.Name == "" || len(uc.Targets) == 0 {
			return nil, errors.New("upstream name and targets required")
		}
		timeout := time.Duration(uc.Timeout) * time.Millisecond
		if timeout == 0 {
			timeout = 30 * time.Second
		}
		ups := &Upstream{
			Name:   uc.Name,
			Client: &http.Client{Timeout: timeout},
			picker: &roundRobin{},
		}
		for _, t := range uc.Targets {
			u, err := url.Parse(t)
			if err != nil {
				return nil, err
			}
			ups.Targets = append(ups.Targets, Target{URL: u})
		}
		m.upstreams[uc.Name] = ups
	}
	return m, nil
}

func (m *Manager) Get(name string) (*Upstream, bool) {
	u, ok := m.upstreams[name]
	return u, ok
}
