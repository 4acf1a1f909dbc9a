package ldap

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-ldap/ldap/v3"
	"github.com/rs/zerolog"
)

// client implements the Client interface.
type client struct {
	pool   ConnectionPool
	config *ConnectionConfig
	log    zerolog.Logger
}

// NewClient creates a new LDAP client with connection pooling.
func NewClient(config *ConnectionConfig, log zerolog.Logger) (Client, error) {
	if config == nil {
		config = DefaultConfig()
	}

	pool, err := NewConnectionPool(config, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	log.Debug().
		Str("domain", config.Domain).
		Int("ldap_urls", len(config.LDAPURLs)).
		Str("auth_method", config.GetAuthMethod().String()).
		Bool("use_tls", config.UseTLS).
		Msg("LDAP client created")

	return &client{
		pool:   pool,
		config: config,
		log:    log,
	}, nil
}

// Connect tests that a connection can be established and authenticated.
func (c *client) Connect(ctx context.Context) error {
	conn, err := c.pool.Get(ctx)
	if err != nil {
		return fmt.Errorf("connection test failed: %w", err)
	}
	defer conn.Close()

	return c.ping(conn)
}

// Close closes the client and all its connections.
func (c *client) Close() error {
	return c.pool.Close()
}

// Search performs a single LDAP search.
func (c *client) Search(ctx context.Context, req *SearchRequest) (*SearchResult, error) {
	if req == nil {
		return nil, fmt.Errorf("search request cannot be nil")
	}

	conn, err := c.pool.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get connection: %w", err)
	}
	defer conn.Close()

	ldapReq := ldap.NewSearchRequest(
		req.BaseDN,
		int(req.Scope),
		int(req.DerefAliases),
		req.SizeLimit,
		int(req.TimeLimit.Seconds()),
		false,
		req.Filter,
		req.Attributes,
		nil,
	)

	var result *ldap.SearchResult
	err = c.withRetry(ctx, func() error {
		var searchErr error
		result, searchErr = conn.Conn().Search(ldapReq)
		return searchErr
	})
	if err != nil {
		return nil, WrapError("search", err)
	}

	c.log.Debug().
		Str("base_dn", req.BaseDN).
		Str("scope", req.Scope.String()).
		Str("filter", req.Filter).
		Int("entries", len(result.Entries)).
		Msg("search completed")

	return &SearchResult{Entries: result.Entries, Total: len(result.Entries)}, nil
}

// SearchWithPaging performs an LDAP search with automatic pagination.
func (c *client) SearchWithPaging(ctx context.Context, req *SearchRequest) (*SearchResult, error) {
	if req == nil {
		return nil, fmt.Errorf("search request cannot be nil")
	}

	conn, err := c.pool.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get connection: %w", err)
	}
	defer conn.Close()

	start := time.Now()
	var allEntries []*ldap.Entry
	pagingControl := ldap.NewControlPaging(pagingSize)
	pageNum := 0

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		pageNum++

		ldapReq := ldap.NewSearchRequest(
			req.BaseDN,
			int(req.Scope),
			int(req.DerefAliases),
			0, // no size limit when paging
			int(req.TimeLimit.Seconds()),
			false,
			req.Filter,
			req.Attributes,
			[]ldap.Control{pagingControl},
		)

		var result *ldap.SearchResult
		err = c.withRetry(ctx, func() error {
			var searchErr error
			result, searchErr = conn.Conn().Search(ldapReq)
			return searchErr
		})
		if err != nil {
			return nil, WrapError("paged_search", err)
		}

		allEntries = append(allEntries, result.Entries...)

		responseControl, ok := ldap.FindControl(result.Controls, ldap.ControlTypePaging).(*ldap.ControlPaging)
		if !ok || len(responseControl.Cookie) == 0 {
			break
		}
		pagingControl.SetCookie(responseControl.Cookie)
	}

	c.log.Debug().
		Str("base_dn", req.BaseDN).
		Str("filter", req.Filter).
		Int("pages", pageNum).
		Int("entries", len(allEntries)).
		Dur("duration", time.Since(start)).
		Msg("paged search completed")

	return &SearchResult{Entries: allEntries, Total: len(allEntries)}, nil
}

// pagingSize is the page size used for paged searches. AD defaults its
// MaxPageSize policy to 1000.
const pagingSize = 1000

// Modify modifies an existing LDAP entry.
func (c *client) Modify(ctx context.Context, req *ModifyRequest) error {
	if req == nil {
		return fmt.Errorf("modify request cannot be nil")
	}

	conn, err := c.pool.Get(ctx)
	if err != nil {
		return fmt.Errorf("failed to get connection: %w", err)
	}
	defer conn.Close()

	ldapReq := ldap.NewModifyRequest(req.DN, nil)
	for attr, values := range req.AddAttributes {
		ldapReq.Add(attr, values)
	}
	for attr, values := range req.ReplaceAttributes {
		ldapReq.Replace(attr, values)
	}
	for _, attr := range req.DeleteAttributes {
		ldapReq.Delete(attr, []string{})
	}

	return c.withRetry(ctx, func() error {
		return conn.Conn().Modify(ldapReq)
	})
}

// Delete removes an LDAP entry.
func (c *client) Delete(ctx context.Context, dn string) error {
	if dn == "" {
		return fmt.Errorf("DN cannot be empty")
	}

	conn, err := c.pool.Get(ctx)
	if err != nil {
		return fmt.Errorf("failed to get connection: %w", err)
	}
	defer conn.Close()

	return c.withRetry(ctx, func() error {
		return conn.Conn().Del(ldap.NewDelRequest(dn, nil))
	})
}

// SetEnabled enables or disables an account by flipping the disable bit in
// userAccountControl. AD has no single-attribute toggle, so this is a
// read-modify-write of the current UAC value.
func (c *client) SetEnabled(ctx context.Context, dn string, enabled bool) error {
	if dn == "" {
		return fmt.Errorf("DN cannot be empty")
	}

	result, err := c.Search(ctx, &SearchRequest{
		BaseDN:     dn,
		Scope:      ScopeBaseObject,
		Filter:     "(objectClass=*)",
		Attributes: []string{"userAccountControl"},
		SizeLimit:  1,
		TimeLimit:  c.config.Timeout,
	})
	if err != nil {
		return WrapError("read_uac", err)
	}
	if len(result.Entries) == 0 {
		return NewLDAPError("read_uac", ldap.NewError(ldap.LDAPResultNoSuchObject, fmt.Errorf("object not found: %s", dn)))
	}

	uac, err := strconv.ParseInt(result.Entries[0].GetAttributeValue("userAccountControl"), 10, 32)
	if err != nil {
		return fmt.Errorf("object %s has no parsable userAccountControl: %w", dn, err)
	}

	newUAC := int32(uac)
	if enabled {
		newUAC &^= UACAccountDisabled
	} else {
		newUAC |= UACAccountDisabled
	}
	if newUAC == int32(uac) {
		return nil // already in the requested state
	}

	err = c.Modify(ctx, &ModifyRequest{
		DN: dn,
		ReplaceAttributes: map[string][]string{
			"userAccountControl": {strconv.FormatInt(int64(newUAC), 10)},
		},
	})
	if err != nil {
		return WrapError("set_enabled", err)
	}

	c.log.Debug().Str("dn", dn).Bool("enabled", enabled).Msg("account state changed")
	return nil
}

// GetBaseDN retrieves the default naming context from the root DSE.
func (c *client) GetBaseDN(ctx context.Context) (string, error) {
	if c.config.BaseDN != "" {
		return c.config.BaseDN, nil
	}

	result, err := c.Search(ctx, &SearchRequest{
		BaseDN:     "",
		Scope:      ScopeBaseObject,
		Filter:     "(objectClass=*)",
		Attributes: []string{"defaultNamingContext"},
		SizeLimit:  1,
		TimeLimit:  5 * time.Second,
	})
	if err != nil {
		return "", fmt.Errorf("failed to get base DN: %w", err)
	}
	if len(result.Entries) == 0 {
		return "", fmt.Errorf("no root DSE found")
	}

	baseDN := result.Entries[0].GetAttributeValue("defaultNamingContext")
	if baseDN == "" {
		return "", fmt.Errorf("no defaultNamingContext found in root DSE")
	}

	return baseDN, nil
}

// WhoAmI performs the LDAP Who Am I? extended operation.
func (c *client) WhoAmI(ctx context.Context) (string, error) {
	conn, err := c.pool.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get connection: %w", err)
	}
	defer conn.Close()

	var result *ldap.WhoAmIResult
	err = c.withRetry(ctx, func() error {
		var whoamiErr error
		result, whoamiErr = conn.Conn().WhoAmI(nil)
		return whoamiErr
	})
	if err != nil {
		return "", WrapError("whoami", err)
	}

	return result.AuthzID, nil
}

// Ping tests connectivity to the LDAP server.
func (c *client) Ping(ctx context.Context) error {
	conn, err := c.pool.Get(ctx)
	if err != nil {
		return fmt.Errorf("failed to get connection: %w", err)
	}
	defer conn.Close()

	return c.ping(conn)
}

// ping performs a minimal root DSE search to test a connection.
func (c *client) ping(conn *PooledConnection) error {
	searchReq := ldap.NewSearchRequest(
		"",
		ldap.ScopeBaseObject,
		ldap.NeverDerefAliases,
		1, 5, false,
		"(objectClass=*)",
		[]string{"defaultNamingContext"},
		nil,
	)

	_, err := conn.Conn().Search(searchReq)
	return err
}

// Stats returns pool statistics.
func (c *client) Stats() PoolStats {
	return c.pool.Stats()
}

// withRetry executes an operation with exponential backoff on retryable errors.
func (c *client) withRetry(ctx context.Context, operation func() error) error {
	var lastErr error
	backoff := c.config.InitialBackoff

	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		err := operation()
		if err == nil {
			if attempt > 0 {
				c.log.Debug().Int("attempts", attempt+1).Msg("operation succeeded after retries")
			}
			return nil
		}

		lastErr = err
		if !IsRetryableError(NewLDAPError("", err)) {
			return err
		}
		if attempt == c.config.MaxRetries {
			break
		}

		c.log.Debug().
			Int("attempt", attempt+1).
			Dur("backoff", backoff).
			Err(err).
			Msg("retrying operation")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
			backoff = min(time.Duration(float64(backoff)*c.config.BackoffFactor), c.config.MaxBackoff)
		}
	}

	return NewConnectionError("operation failed after retries", false, lastErr)
}
