package otp

import (
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/go-crypt/x/blake2b"
)

// CodeLength число цифр в коде.
const CodeLength = 6

// DefaultMaxAttempts сколько неверных кодов допускается до удаления записи.
const DefaultMaxAttempts = 5

const keyPrefix = "otp:"

var ErrInvalidOTP = errors.New("invalid or expired otp")

// Store одноразовые коды сброса пароля, по одному на email.
// Коды хранятся в виде ключевого хеша blake2b и истекают через TTL.
// Значение записи: первый байт счетчик неверных попыток, дальше хеш кода.
type Store struct {
	db          *badger.DB
	key         []byte
	ttl         time.Duration
	maxAttempts int
}

type Option func(*Store)

// WithMaxAttempts после n неверных кодов запись удаляется; n <= 0 оставляет значение по умолчанию.
func WithMaxAttempts(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

func NewStore(db *badger.DB, secret string, ttl time.Duration, opts ...Option) *Store {
	key := []byte(secret)
	if len(key) > blake2b.Size {
		sum := blake2b.Sum512(key)
		key = sum[:]
	}
	s := &Store{db: db, key: key, ttl: ttl, maxAttempts: DefaultMaxAttempts}
	for _, opt := range opts {
		opt(s)
	}
	if s.maxAttempts > 255 {
		s.maxAttempts = 255
	}
	return s
}

// Generate случайный код из CodeLength цифр.
func Generate() (string, error) {
	max := big.NewInt(1_000_000)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", fmt.Errorf("не удалось сгенерировать код: %w", err)
	}
	return fmt.Sprintf("%0*d", CodeLength, n.Int64()), nil
}

// Issue генерирует код для email и сохраняет его, заменяя предыдущий.
func (s *Store) Issue(email string) (string, error) {
	code, err := Generate()
	if err != nil {
		return "", err
	}
	if err := s.Put(email, code); err != nil {
		return "", err
	}
	return code, nil
}

func (s *Store) Put(email, code string) error {
	digest, err := s.digest(code)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry(storeKey(email), append([]byte{0}, digest...))
		if s.ttl > 0 {
			e = e.WithTTL(s.ttl)
		}
		return txn.SetEntry(e)
	})
}

// Verify проверяет код, не удаляя его. Неверный код увеличивает счетчик попыток.
func (s *Store) Verify(email, code string) error {
	return s.verify(email, code, false)
}

// Consume проверяет код и удаляет его в одной транзакции.
func (s *Store) Consume(email, code string) error {
	return s.verify(email, code, true)
}

func (s *Store) verify(email, code string, consume bool) error {
	var err error
	for i := 0; i < 3; i++ {
		err = s.verifyOnce(email, code, consume)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
	}
	return err
}

func (s *Store) verifyOnce(email, code string, consume bool) error {
	var mismatch bool
	err := s.db.Update(func(txn *badger.Txn) error {
		item, err := s.check(txn, email, code)
		if errors.Is(err, errMismatch) {
			mismatch = true
			return s.recordFailure(txn, item)
		}
		if err != nil {
			return err
		}
		if consume {
			return txn.Delete(storeKey(email))
		}
		return nil
	})
	if err != nil {
		return err
	}
	if mismatch {
		return ErrInvalidOTP
	}
	return nil
}

// recordFailure увеличивает счетчик попыток с сохранением срока жизни записи
// или удаляет запись, когда попытки исчерпаны.
func (s *Store) recordFailure(txn *badger.Txn, item *badger.Item) error {
	val, err := item.ValueCopy(nil)
	if err != nil {
		return err
	}
	attempts := int(val[0]) + 1
	if attempts >= s.maxAttempts {
		return txn.Delete(item.KeyCopy(nil))
	}
	val[0] = byte(attempts)
	e := badger.NewEntry(item.KeyCopy(nil), val)
	if exp := item.ExpiresAt(); exp > 0 {
		left := time.Until(time.Unix(int64(exp), 0))
		if left <= 0 {
			return txn.Delete(item.KeyCopy(nil))
		}
		e = e.WithTTL(left)
	}
	return txn.SetEntry(e)
}

func (s *Store) Delete(email string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(storeKey(email))
	})
}

var errMismatch = errors.New("otp mismatch")

// check возвращает errMismatch вместе с записью, если код не совпал.
func (s *Store) check(txn *badger.Txn, email, code string) (*badger.Item, error) {
	item, err := txn.Get(storeKey(email))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrInvalidOTP
	}
	if err != nil {
		return nil, err
	}
	val, err := item.ValueCopy(nil)
	if err != nil {
		return nil, err
	}
	if len(val) < 1 {
		return nil, ErrInvalidOTP
	}
	got, err := s.digest(strings.TrimSpace(code))
	if err != nil {
		return nil, err
	}
	if subtle.ConstantTimeCompare(val[1:], got) != 1 {
		return item, errMismatch
	}
	return item, nil
}

func (s *Store) digest(code string) ([]byte, error) {
	h, err := blake2b.New256(s.key)
	if err != nil {
		return nil, fmt.Errorf("не удалось создать хеш: %w", err)
	}
	h.Write([]byte(code))
	return h.Sum(nil), nil
}

func storeKey(email string) []byte {
	return []byte(keyPrefix + strings.ToLower(strings.TrimSpace(email)))
}
