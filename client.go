package viewsync

import (
	nethttp "net/http"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"golang.org/x/text/language"

	"github.com/hrdesk/viewsync/cache"
	"github.com/hrdesk/viewsync/internal"
	"github.com/hrdesk/viewsync/internal/http"
)

// Client ties together everything views and mutations share: the resource
// cache, the session, the HTTP client and user feedback.
type Client struct {
	cache     *cache.ResourceCache
	session   *Session
	http      *http.Client
	notifier  Notifier
	localizer Localizer
	debounce  time.Duration
	pageSize  int

	mu     sync.RWMutex
	locale language.Tag
}

type clientOptions struct {
	session    *Session
	notifier   Notifier
	localizer  Localizer
	store      cache.Store
	httpClient *nethttp.Client
}

// ClientOption configures a Client
type ClientOption func(*clientOptions)

// WithSession sets the session; by default an anonymous session is created.
func WithSession(s *Session) ClientOption {
	return func(o *clientOptions) {
		o.session = s
	}
}

// WithNotifier sets the toast sink; by default toasts are logged.
func WithNotifier(n Notifier) ClientOption {
	return func(o *clientOptions) {
		o.notifier = n
	}
}

// WithLocalizer replaces the PipeLocalizer built from the configuration
func WithLocalizer(l Localizer) ClientOption {
	return func(o *clientOptions) {
		o.localizer = l
	}
}

// WithStore replaces the backing store selected by the configuration
func WithStore(s cache.Store) ClientOption {
	return func(o *clientOptions) {
		o.store = s
	}
}

// WithHTTPClient replaces the underlying http client
func WithHTTPClient(c *nethttp.Client) ClientOption {
	return func(o *clientOptions) {
		o.httpClient = c
	}
}

// NewClient creates a Client from cfg; nil selects DefaultConfig().
func NewClient(cfg *Config, opts ...ClientOption) (*Client, error) {
	if cfg == nil {
		d := DefaultConfig()
		cfg = &d
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := SetLogLevelName(cfg.LogLevel); err != nil {
		return nil, err
	}
	o := clientOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.session == nil {
		o.session = NewSession("")
	}
	if o.notifier == nil {
		o.notifier = logNotifier{}
	}
	if o.localizer == nil {
		o.localizer = NewPipeLocalizer(cfg.languageTags(), nil)
	}
	if o.store == nil {
		store, err := newStore(cfg.Cache)
		if err != nil {
			return nil, err
		}
		o.store = store
	}

	return &Client{
		cache: cache.NewResourceCache(
			cache.WithStore(o.store),
			cache.WithGracePeriod(cfg.Cache.GracePeriod.Duration),
			cache.WithFetchTimeout(cfg.Cache.FetchTimeout.Duration),
		),
		session: o.session,
		http: http.NewClient(
			http.Options{
				BaseURL:    cfg.BaseURL,
				Timeout:    cfg.Timeout.Duration,
				UserAgent:  "viewsync",
				HTTPClient: o.httpClient,
			},
		),
		notifier:  o.notifier,
		localizer: o.localizer,
		debounce:  cfg.Debounce.Duration,
		pageSize:  cfg.DefaultPageSize,
		locale:    cfg.localeTag(),
	}, nil
}

func newStore(cfg CacheConfig) (cache.Store, error) {
	if cfg.Redis.Addr == "" {
		return cache.NewMemoryStore(cfg.StoreTTL.Duration), nil
	}
	store, err := cache.NewRedisStore(
		&redis.Options{
			Addr:     cfg.Redis.Addr,
			Username: cfg.Redis.Username,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, cfg.StoreTTL.Duration,
	)
	if err != nil {
		return nil, errors.Wrap(err, "could not set up backing store")
	}
	internal.Infof("using redis backing store at %s", cfg.Redis.Addr)
	return store, nil
}

// Session returns the client's session
func (c *Client) Session() *Session {
	return c.session
}

// Cache returns the client's resource cache
func (c *Client) Cache() *cache.ResourceCache {
	return c.cache
}

// Locale returns the current locale
func (c *Client) Locale() language.Tag {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.locale
}

// SetLocale changes the locale used for toasts
func (c *Client) SetLocale(locale language.Tag) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.locale = locale
}

// RESTResource returns a Resource served by a RESTService at path.
func RESTResource[T any](c *Client, name, path, listField string, id func(T) string) *Resource[T] {
	return &Resource[T]{
		Name: name,
		ID:   id,
		Service: func(p Principal) Service[T] {
			return NewRESTService[T](c.http, p, path, listField)
		},
	}
}

// Localize returns msg, a message key or a pipe separated server message, in
// the client's locale
func (c *Client) Localize(msg string) string {
	return c.localizer.Localize(msg, c.Locale())
}

func (c *Client) notify(kind NotificationKind, msg string) bool {
	text := c.Localize(msg)
	if text == "" {
		return false
	}
	c.notifier.Notify(kind, text)
	return true
}

// reportFailure gives feedback on a failed request: authorization failures
// go to the session (a session expired toast if it has no handler), field
// errors to sink if it accepts them, everything else becomes error toasts.
// It returns the number of toasts shown.
func (c *Client) reportFailure(err error, sink FieldErrors) int {
	apiErr := AsAPIError(err)
	if apiErr == nil {
		return 0
	}
	if apiErr.IsAuth() {
		if c.session.reportAuthFailure(apiErr) || !c.notify(NotifyError, MessageSessionExpired) {
			return 0
		}
		return 1
	}
	if len(apiErr.Fields) > 0 && sink != nil && sink.SetFieldErrors(apiErr.Fields) {
		return 0
	}
	n := 0
	if len(apiErr.Errors) > 0 {
		for _, msg := range apiErr.Errors {
			if c.notify(NotifyError, msg) {
				n++
			}
		}
		if n > 0 {
			return n
		}
	}
	if apiErr.Message != "" && c.notify(NotifyError, apiErr.Message) {
		return 1
	}
	if c.notify(NotifyError, MessageGenericError) {
		return 1
	}
	return 0
}
