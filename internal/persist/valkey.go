package persist

import (
	"context"

	valkey "github.com/valkey-io/valkey-go"
)

// ValkeyKV implements KV on a Valkey server, for deployments that keep the
// collection out of the local sqlite file.
type ValkeyKV struct {
	c valkey.Client
}

func NewValkey(addr, password string) (*ValkeyKV, error) {
	opts := valkey.ClientOption{
		InitAddress: []string{addr},
	}
	if password != "" {
		opts.Username = "default"
		opts.Password = password
	}
	client, err := valkey.NewClient(opts)
	if err != nil {
		return nil, err
	}
	return &ValkeyKV{c: client}, nil
}

func (v *ValkeyKV) Get(ctx context.Context, key string) (string, bool) {
	res := v.c.Do(ctx, v.c.B().Get().Key(key).Build())
	if err := res.Error(); err != nil {
		return "", false
	}
	str, err := res.ToString()
	if err != nil {
		return "", false
	}
	return str, true
}

func (v *ValkeyKV) Set(ctx context.Context, key, val string) error {
	res := v.c.Do(ctx, v.c.B().Set().Key(key).Value(val).Build())
	return res.Error()
}

func (v *ValkeyKV) Delete(ctx context.Context, key string) error {
	res := v.c.Do(ctx, v.c.B().Del().Key(key).Build())
	return res.Error()
}

func (v *ValkeyKV) Close() { v.c.Close() }
