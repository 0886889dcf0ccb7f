package pepper

import (
	"context"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"

	"github.com/Shawn-Jones-7/tucsenberg-web-frontier-sub003/internal/appenv"
	"github.com/Shawn-Jones-7/tucsenberg-web-frontier-sub003/internal/log"
	"github.com/Shawn-Jones-7/tucsenberg-web-frontier-sub003/internal/xerrors"
)

// MinLength is the minimum pepper strength. Anything shorter is "weak":
// fatal in production, warned-and-used elsewhere.
const MinLength = 32

// devPepper substitutes for a missing pepper outside production. The
// value is deliberately recognizable in any dump or log so it can never
// be mistaken for a real secret.
const devPepper = "insecure-dev-pepper-do-not-use-in-production"

// Strength classifies a pepper value.
type Strength int

const (
	Absent Strength = iota
	Weak
	Acceptable
)

// Classify returns the strength bucket for a pepper value.
func Classify(value string) Strength {
	switch {
	case value == "":
		return Absent
	case len(value) < MinLength:
		return Weak
	default:
		return Acceptable
	}
}

// Pepper is the resolved server-side HMAC secret, plus the previous
// secret when a rotation window is open.
type Pepper struct {
	Value    string
	Previous string

	// Source records where Value came from: "config", "kms", "ssm",
	// or "dev-fallback". Exported for the ops info gauge, never logged
	// alongside the value itself.
	Source string
}

// ssmParameterAPI is the subset of the SSM API needed to fetch the
// pepper parameter. Extracted as an interface for tests.
type ssmParameterAPI interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// decrypter resolves a KMS-encrypted pepper ciphertext.
type decrypter interface {
	DecryptString(ctx context.Context, ciphertextB64 string) (string, error)
}

type Options struct {
	// Value is the pepper supplied directly through configuration.
	// Highest precedence.
	Value string
	// Previous holds the prior pepper during a rotation grace period.
	Previous string

	// KMSCiphertext is a base64 KMS-encrypted pepper; decrypted when
	// Value is unset and a Decrypter is available.
	KMSCiphertext string
	Decrypter     decrypter

	// SSMParam names a SecureString parameter holding the pepper;
	// fetched with decryption when neither Value nor KMSCiphertext
	// yields one.
	SSMParam  string
	SSMClient ssmParameterAPI

	Env    appenv.Environment
	Logger log.Logger
}

// Store resolves the pepper once per process and caches the result.
// Concurrent first access is safe: all callers agree on one resolved
// value and the weak/absent warning is logged at most once.
type Store struct {
	opts Options

	mu   sync.Mutex
	once sync.Once
	val  Pepper
	err  error
}

func NewStore(opts Options) *Store {
	if opts.Logger == nil {
		opts.Logger = log.Nop()
	}
	return &Store{opts: opts}
}

// Get resolves and returns the pepper. The first call does any remote
// fetches; later calls return the cached result. In production a missing
// or weak pepper is a fatal configuration error: the caller must refuse
// to serve rather than silently run with degraded rate limiting.
func (s *Store) Get(ctx context.Context) (Pepper, error) {
	s.once.Do(func() {
		s.val, s.err = s.resolve(ctx)
	})
	return s.val, s.err
}

// Reset discards the cached pepper and the one-time warning state so
// tests can exercise cold-start paths. Not for production use.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.once = sync.Once{}
	s.val = Pepper{}
	s.err = nil
}

func (s *Store) resolve(ctx context.Context) (Pepper, error) {
	value, source, err := s.fetch(ctx)
	if err != nil {
		return Pepper{}, err
	}

	switch Classify(value) {
	case Absent:
		if s.opts.Env.IsProduction() {
			return Pepper{}, xerrors.New("rate-limit pepper is required in production (set rate-limit-pepper, pepper-kms-ciphertext, or pepper-ssm-param)")
		}
		s.opts.Logger.Warn(ctx, "rate-limit pepper not configured, using insecure development fallback",
			"env", s.opts.Env.String(),
		)
		value, source = devPepper, "dev-fallback"
	case Weak:
		if s.opts.Env.IsProduction() {
			return Pepper{}, xerrors.Newf("rate-limit pepper is too short (%d chars, need >= %d) for production", len(value), MinLength)
		}
		s.opts.Logger.Warn(ctx, "rate-limit pepper is shorter than recommended",
			"length", len(value),
			"min_length", MinLength,
			"env", s.opts.Env.String(),
		)
	}

	return Pepper{Value: value, Previous: s.opts.Previous, Source: source}, nil
}

// fetch walks the sources by precedence: literal config value, KMS
// ciphertext, SSM parameter. A configured-but-failing remote source is
// an error, not a fallthrough: silently skipping a broken source would
// downgrade to the dev pepper in non-production without anyone noticing.
func (s *Store) fetch(ctx context.Context) (value, source string, err error) {
	if s.opts.Value != "" {
		return s.opts.Value, "config", nil
	}

	if s.opts.KMSCiphertext != "" {
		if s.opts.Decrypter == nil {
			return "", "", xerrors.New("pepper-kms-ciphertext set but no KMS client configured")
		}
		pt, err := s.opts.Decrypter.DecryptString(ctx, s.opts.KMSCiphertext)
		if err != nil {
			return "", "", xerrors.Wrap(err, "decrypt pepper ciphertext")
		}
		return pt, "kms", nil
	}

	if s.opts.SSMParam != "" {
		if s.opts.SSMClient == nil {
			return "", "", xerrors.New("pepper-ssm-param set but no SSM client configured")
		}
		out, err := s.opts.SSMClient.GetParameter(ctx, &ssm.GetParameterInput{
			Name:           aws.String(s.opts.SSMParam),
			WithDecryption: aws.Bool(true),
		})
		if err != nil {
			return "", "", xerrors.Wrapf(err, "fetch pepper from ssm parameter %s", s.opts.SSMParam)
		}
		if out.Parameter == nil || out.Parameter.Value == nil {
			return "", "", xerrors.Newf("ssm parameter %s has no value", s.opts.SSMParam)
		}
		return *out.Parameter.Value, "ssm", nil
	}

	return "", "", nil
}
