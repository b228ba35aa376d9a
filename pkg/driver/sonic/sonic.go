// Package sonic implements the driver capability set for SONiC devices.
// SONiC has no candidate datastore of its own: the running configuration is
// the config_db Redis database (DB 4), and this driver holds the candidate
// client-side, committing it through a Redis transaction pipeline.
package sonic

import (
	"context"
	"fmt"
	"strconv"

	"github.com/go-redis/redis/v8"
	"github.com/kylelemons/godebug/diff"

	"github.com/confpush-network/confpush/pkg/driver"
	"github.com/confpush-network/confpush/pkg/util"
)

func init() {
	driver.Register("sonic", New)
}

// Driver holds a Redis connection to a single SONiC device's config_db.
type Driver struct {
	opts driver.ConnectOptions

	rdb    *redis.Client
	tunnel *Tunnel

	candidate ConfigDB // pending candidate, nil until loaded
	replace   bool     // replace vs merge semantics for the loaded candidate
}

// New builds an unopened SONiC driver.
// Optional args: "ssh_tunnel" ("true" reaches Redis through an SSH tunnel,
// required unless the device's Redis port is directly reachable),
// "redis_port" (default 6379), "redis_db" (default 4, CONFIG_DB).
func New(opts driver.ConnectOptions) (driver.Driver, error) {
	return &Driver{opts: opts}, nil
}

// Open connects to the device's config_db, tunneling over SSH when requested.
func (d *Driver) Open(ctx context.Context) error {
	dbNum, err := strconv.Atoi(d.opts.Arg("redis_db", "4"))
	if err != nil {
		return fmt.Errorf("invalid redis_db %q: %w", d.opts.OptionalArgs["redis_db"], err)
	}
	redisPort := d.opts.Arg("redis_port", "6379")

	addr := d.opts.Hostname + ":" + redisPort
	if d.opts.Arg("ssh_tunnel", "") == "true" {
		tunnel, err := NewTunnel(d.opts.Hostname, d.opts.Username, d.opts.Password, "127.0.0.1:"+redisPort)
		if err != nil {
			return err
		}
		d.tunnel = tunnel
		addr = tunnel.LocalAddr()
	}

	d.rdb = redis.NewClient(&redis.Options{
		Addr:        addr,
		DB:          dbNum,
		DialTimeout: d.opts.Timeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, d.opts.Timeout)
	defer cancel()
	if err := d.rdb.Ping(pingCtx).Err(); err != nil {
		d.teardown()
		return fmt.Errorf("pinging config_db at %s: %w", addr, err)
	}

	util.WithDevice(d.opts.Hostname).Debug("config_db session open")
	return nil
}

// GetConfig renders the requested store as a config_db JSON dump. The
// candidate store is the pending configuration as it would look after commit.
func (d *Driver) GetConfig(ctx context.Context, source driver.Source) (string, error) {
	switch source {
	case driver.SourceRunning:
		running, err := d.fetchRunning(ctx)
		if err != nil {
			return "", err
		}
		return running.Render()
	case driver.SourceCandidate:
		effective, err := d.effectiveCandidate(ctx)
		if err != nil {
			return "", err
		}
		return effective.Render()
	}
	return "", fmt.Errorf("unknown config source %q", source)
}

// LoadMergeCandidate parses src as a config_db dump to overlay onto the
// running configuration.
func (d *Driver) LoadMergeCandidate(ctx context.Context, src driver.ConfigSource) error {
	return d.load(src, false)
}

// LoadReplaceCandidate parses src as a config_db dump that wholly supersedes
// the running configuration on commit.
func (d *Driver) LoadReplaceCandidate(ctx context.Context, src driver.ConfigSource) error {
	return d.load(src, true)
}

func (d *Driver) load(src driver.ConfigSource, replace bool) error {
	text, err := src.Read()
	if err != nil {
		return err
	}
	db, err := ParseConfigDB(text)
	if err != nil {
		return err
	}
	d.candidate = db
	d.replace = replace
	return nil
}

// CompareConfig line-diffs the running config_db render against the pending
// candidate render. Empty string means commit would be a no-op.
func (d *Driver) CompareConfig(ctx context.Context) (string, error) {
	running, err := d.fetchRunning(ctx)
	if err != nil {
		return "", err
	}
	effective, err := d.effectiveCandidate(ctx)
	if err != nil {
		return "", err
	}
	before, err := running.Render()
	if err != nil {
		return "", err
	}
	after, err := effective.Render()
	if err != nil {
		return "", err
	}
	return diff.Diff(before, after), nil
}

// CommitConfig writes the pending candidate through a MULTI/EXEC pipeline.
// In replace mode, keys absent from the candidate are deleted first. The
// comment has no config_db representation and is only logged.
func (d *Driver) CommitConfig(ctx context.Context, comment string) error {
	if d.candidate == nil {
		return fmt.Errorf("no candidate loaded")
	}
	if comment != "" {
		util.WithDevice(d.opts.Hostname).Debugf("commit comment: %s", comment)
	}

	effective, err := d.effectiveCandidate(ctx)
	if err != nil {
		return err
	}

	pipe := d.rdb.TxPipeline()

	if d.replace {
		existing, err := d.scanKeys(ctx)
		if err != nil {
			return err
		}
		for _, key := range existing {
			if effective.fields(key) == nil {
				pipe.Del(ctx, key)
			}
		}
	}

	for _, key := range effective.redisKeys() {
		fields := effective.fields(key)
		if len(fields) == 0 {
			// config_db convention for an entry with no attributes
			pipe.HSet(ctx, key, "NULL", "NULL")
			continue
		}
		args := make([]interface{}, 0, len(fields)*2)
		for f, v := range fields {
			args = append(args, f, v)
		}
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key, args...)
	}

	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return fmt.Errorf("writing config_db: %w", err)
	}

	d.candidate = nil
	return nil
}

// DiscardConfig drops the client-side candidate; the device never saw it.
func (d *Driver) DiscardConfig(ctx context.Context) error {
	d.candidate = nil
	return nil
}

// Close closes the Redis connection and the SSH tunnel, if any.
func (d *Driver) Close() error {
	return d.teardown()
}

func (d *Driver) teardown() error {
	var firstErr error
	if d.rdb != nil {
		if err := d.rdb.Close(); err != nil {
			firstErr = err
		}
		d.rdb = nil
	}
	if d.tunnel != nil {
		if err := d.tunnel.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		d.tunnel = nil
	}
	return firstErr
}

// fetchRunning reads the entire config_db into a ConfigDB.
func (d *Driver) fetchRunning(ctx context.Context) (ConfigDB, error) {
	keys, err := d.scanKeys(ctx)
	if err != nil {
		return nil, err
	}
	db := ConfigDB{}
	for _, key := range keys {
		fields, err := d.rdb.HGetAll(ctx, key).Result()
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", key, err)
		}
		// strip the NULL placeholder written for attribute-less entries
		if len(fields) == 1 && fields["NULL"] == "NULL" {
			fields = map[string]string{}
		}
		db.setEntry(key, fields)
	}
	return db, nil
}

// effectiveCandidate returns the configuration as it would look after commit:
// the candidate itself in replace mode, or the running config with the
// candidate overlaid in merge mode.
func (d *Driver) effectiveCandidate(ctx context.Context) (ConfigDB, error) {
	if d.candidate == nil {
		return nil, fmt.Errorf("no candidate loaded")
	}
	if d.replace {
		return d.candidate, nil
	}
	running, err := d.fetchRunning(ctx)
	if err != nil {
		return nil, err
	}
	merged := running.Clone()
	merged.Overlay(d.candidate)
	return merged, nil
}

// scanKeys iterates config_db keys with cursor-based SCAN instead of the
// blocking O(N) KEYS command.
func (d *Driver) scanKeys(ctx context.Context) ([]string, error) {
	var cursor uint64
	var keys []string
	for {
		batch, nextCursor, err := d.rdb.Scan(ctx, cursor, "*", 100).Result()
		if err != nil {
			return nil, err
		}
		keys = append(keys, batch...)
		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}
	return keys, nil
}
