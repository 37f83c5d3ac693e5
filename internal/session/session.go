package session

import (
	"fmt"
	"net/http"
	"slices"

	"github.com/gorilla/sessions"
)

const sessionName = "maib_checkout"

// CartKind selects which cart list of the session is consulted.
type CartKind string

const (
	CartActive    CartKind = "active_carts"
	CartCompleted CartKind = "completed_carts"
)

// Store keeps anonymous cart ownership and flash messages in a signed
// cookie.
type Store struct {
	store *sessions.CookieStore
}

func NewStore(key []byte, secure bool) *Store {
	cs := sessions.NewCookieStore(key)
	cs.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	if secure {
		// the bank posts the customer back cross-site
		cs.Options.SameSite = http.SameSiteNoneMode
	}
	return &Store{store: cs}
}

func (s *Store) session(r *http.Request) (*sessions.Session, error) {
	sess, err := s.store.Get(r, sessionName)
	if err != nil {
		// tampered or rotated key, start over with a fresh session
		sess, err = s.store.New(r, sessionName)
		if sess == nil {
			return nil, fmt.Errorf("open session: %w", err)
		}
	}
	return sess, nil
}

func cartIDs(sess *sessions.Session, kind CartKind) []uint {
	ids, _ := sess.Values[string(kind)].([]uint)
	return ids
}

// HasCartID reports whether the visitor's session holds orderID in the
// given cart list.
func (s *Store) HasCartID(r *http.Request, orderID uint, kind CartKind) bool {
	sess, err := s.session(r)
	if err != nil {
		return false
	}
	return slices.Contains(cartIDs(sess, kind), orderID)
}

func (s *Store) AddCartID(w http.ResponseWriter, r *http.Request, orderID uint, kind CartKind) error {
	sess, err := s.session(r)
	if err != nil {
		return err
	}

	ids := cartIDs(sess, kind)
	if slices.Contains(ids, orderID) {
		return nil
	}
	sess.Values[string(kind)] = append(ids, orderID)
	return sess.Save(r, w)
}

func (s *Store) AddFlash(w http.ResponseWriter, r *http.Request, msg string) error {
	sess, err := s.session(r)
	if err != nil {
		return err
	}
	sess.AddFlash(msg)
	return sess.Save(r, w)
}

// Flashes pops the pending flash messages.
func (s *Store) Flashes(w http.ResponseWriter, r *http.Request) ([]string, error) {
	sess, err := s.session(r)
	if err != nil {
		return nil, err
	}

	raw := sess.Flashes()
	if len(raw) == 0 {
		return nil, nil
	}

	msgs := make([]string, 0, len(raw))
	for _, f := range raw {
		if m, ok := f.(string); ok {
			msgs = append(msgs, m)
		}
	}
	return msgs, sess.Save(r, w)
}
