// Package identity loads the sender identity feed consumed by the campaign.
//
// The feed is a CSV file of ordered records:
//
//	index,address,displayName,credential
//
// A credential of "-" is the sentinel for identities excluded from sending
// (for example when upstream provisioning failed); those records are kept for
// lookup but never originate work. A credential of "@keyring" resolves the
// secret from the system keyring under the identity's address.
package identity

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/nhle/mailseed/internal/credential"
	"github.com/nhle/mailseed/internal/model"
)

// Sentinel marks a feed record as excluded from sending.
const Sentinel = "-"

// keyringRef marks a feed record whose secret lives in the system keyring.
const keyringRef = "@keyring"

// ErrNoneEligible is returned when the feed contains no identity that may
// originate sends.
var ErrNoneEligible = errors.New("identity feed contains no eligible sender")

// Pool is the read-only identity collection for one campaign run. It is
// never mutated after loading.
type Pool struct {
	all      []model.Identity
	eligible []model.Identity
	byAddr   map[string]model.Identity
}

// NewPool builds a pool from already-loaded identities, for callers that
// source identities somewhere other than the CSV feed.
func NewPool(ids []model.Identity) *Pool {
	pool := &Pool{byAddr: make(map[string]model.Identity, len(ids))}
	for _, id := range ids {
		pool.all = append(pool.all, id)
		if id.Eligible() {
			pool.eligible = append(pool.eligible, id)
		}
		pool.byAddr[id.Address] = id
	}
	return pool
}

// Resolver resolves an external credential reference to a secret.
type Resolver func(key string) (string, error)

// Load reads the identity feed at path. Keyring references are resolved
// through the system keyring.
func Load(path string) (*Pool, error) {
	return LoadWithResolver(path, credential.Get)
}

// LoadWithResolver reads the identity feed at path, resolving keyring
// references through resolve.
func LoadWithResolver(path string, resolve Resolver) (*Pool, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening identity feed %s: %w", path, err)
	}
	defer f.Close()

	pool, err := parse(f, resolve)
	if err != nil {
		return nil, fmt.Errorf("parsing identity feed %s: %w", path, err)
	}
	return pool, nil
}

// parse reads CSV records into a Pool. Lines starting with '#' and blank
// lines are skipped.
func parse(r io.Reader, resolve Resolver) (*Pool, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 4
	cr.Comment = '#'
	cr.TrimLeadingSpace = true

	pool := &Pool{byAddr: make(map[string]model.Identity)}
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading record: %w", err)
		}

		idx, err := strconv.Atoi(strings.TrimSpace(rec[0]))
		if err != nil {
			return nil, fmt.Errorf("record %q: bad index: %w", rec, err)
		}

		id := model.Identity{
			Index:       idx,
			Address:     strings.TrimSpace(rec[1]),
			DisplayName: strings.TrimSpace(rec[2]),
		}
		if id.Address == "" {
			return nil, fmt.Errorf("record %d: empty address", idx)
		}

		switch cred := strings.TrimSpace(rec[3]); cred {
		case Sentinel:
			// Excluded from sending; kept for lookup only.
		case keyringRef:
			secret, err := resolve(id.Address)
			if err != nil {
				return nil, fmt.Errorf("resolving credential for %s: %w", id.Address, err)
			}
			id.Credential = secret
		default:
			id.Credential = cred
		}

		pool.all = append(pool.all, id)
		if id.Eligible() {
			pool.eligible = append(pool.eligible, id)
		}
		pool.byAddr[id.Address] = id
	}

	if len(pool.eligible) == 0 {
		return nil, ErrNoneEligible
	}
	return pool, nil
}

// Eligible returns the identities allowed to originate sends, in feed order.
// The returned slice must not be mutated.
func (p *Pool) Eligible() []model.Identity {
	return p.eligible
}

// ByAddress looks up an identity by its address.
func (p *Pool) ByAddress(addr string) (model.Identity, bool) {
	id, ok := p.byAddr[addr]
	return id, ok
}

// Len returns the total number of identities in the feed, sentinels
// included.
func (p *Pool) Len() int {
	return len(p.all)
}
