// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package settings

import (
	"time"

	"github.com/mitchellh/hashstructure/v2"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DefaultHost is used when no host is configured.
const DefaultHost = "localhost:27017"

type clientValues struct {
	AppName                string
	Hosts                  []string
	ReplicaSet             string
	Concerns               concernValues
	RetryWrites            *bool
	ConnectTimeout         *time.Duration
	ServerSelectionTimeout *time.Duration
	MaxPoolSize            *uint64
	CredentialHash         uint64

	credential *Credential
}

// ClientSettings are the settings of a client. They are immutable.
type ClientSettings struct {
	v    clientValues
	hash uint64
	str  string
}

// ClientBuilder builds ClientSettings. A builder is owned by a single
// goroutine; it freezes on Build.
type ClientBuilder struct {
	v     clientValues
	built *ClientSettings
	err   error
}

// Client returns a new ClientBuilder.
func Client() *ClientBuilder {
	return &ClientBuilder{}
}

func (b *ClientBuilder) set(fn func(*clientValues)) *ClientBuilder {
	if b.built != nil {
		b.err = ErrFrozen
		return b
	}
	fn(&b.v)
	return b
}

// SetAppName sets the application name sent to the server.
func (b *ClientBuilder) SetAppName(name string) *ClientBuilder {
	return b.set(func(v *clientValues) { v.AppName = name })
}

// SetHosts sets the seed list.
func (b *ClientBuilder) SetHosts(hosts ...string) *ClientBuilder {
	return b.set(func(v *clientValues) { v.Hosts = append([]string(nil), hosts...) })
}

// SetReplicaSet sets the replica set name.
func (b *ClientBuilder) SetReplicaSet(name string) *ClientBuilder {
	return b.set(func(v *clientValues) { v.ReplicaSet = name })
}

// SetCredential sets the credential used to authenticate.
func (b *ClientBuilder) SetCredential(c *Credential) *ClientBuilder {
	return b.set(func(v *clientValues) { v.credential = c })
}

// SetReadConcern sets the read concern level.
func (b *ClientBuilder) SetReadConcern(level string) *ClientBuilder {
	return b.set(func(v *clientValues) { v.Concerns.ReadConcern = stringPtr(level) })
}

// SetWriteConcern sets the write concern.
func (b *ClientBuilder) SetWriteConcern(wc WriteConcern) *ClientBuilder {
	return b.set(func(v *clientValues) { v.Concerns.WriteConcern = wc.clone() })
}

// SetReadPreference sets the read preference mode, such as "secondaryPreferred".
func (b *ClientBuilder) SetReadPreference(mode string) *ClientBuilder {
	return b.set(func(v *clientValues) { v.Concerns.ReadPreference = stringPtr(mode) })
}

// SetRetryWrites sets whether retryable writes are enabled.
func (b *ClientBuilder) SetRetryWrites(retry bool) *ClientBuilder {
	return b.set(func(v *clientValues) { v.RetryWrites = &retry })
}

// SetConnectTimeout sets the connection timeout.
func (b *ClientBuilder) SetConnectTimeout(d time.Duration) *ClientBuilder {
	return b.set(func(v *clientValues) { v.ConnectTimeout = &d })
}

// SetServerSelectionTimeout sets the server selection timeout.
func (b *ClientBuilder) SetServerSelectionTimeout(d time.Duration) *ClientBuilder {
	return b.set(func(v *clientValues) { v.ServerSelectionTimeout = &d })
}

// SetMaxPoolSize sets the maximum number of connections per server.
func (b *ClientBuilder) SetMaxPoolSize(n uint64) *ClientBuilder {
	return b.set(func(v *clientValues) { v.MaxPoolSize = &n })
}

// ApplyURL copies every option present in u into the builder.
func (b *ClientBuilder) ApplyURL(u *URL) *ClientBuilder {
	if b.built != nil {
		b.err = ErrFrozen
		return b
	}

	if u.HasCredential() {
		cred, err := u.Credential()
		if err != nil {
			if b.err == nil {
				b.err = err
			}
			return b
		}
		b.v.credential = cred
	}
	if len(u.hosts) > 0 {
		b.v.Hosts = append([]string(nil), u.hosts...)
	}
	if u.appName != "" {
		b.v.AppName = u.appName
	}
	if u.replicaSet != "" {
		b.v.ReplicaSet = u.replicaSet
	}
	if u.readConcernLevel != "" {
		b.v.Concerns.ReadConcern = stringPtr(u.readConcernLevel)
	}
	if u.readPreference != "" {
		b.v.Concerns.ReadPreference = stringPtr(u.readPreference)
	}
	if u.writeConcern != nil {
		b.v.Concerns.WriteConcern = u.writeConcern.clone()
	}
	if u.retryWrites != nil {
		b.v.RetryWrites = u.retryWrites
	}
	if u.connectTimeout != nil {
		b.v.ConnectTimeout = u.connectTimeout
	}
	if u.serverSelectionTimeout != nil {
		b.v.ServerSelectionTimeout = u.serverSelectionTimeout
	}
	if u.maxPoolSize != nil {
		b.v.MaxPoolSize = u.maxPoolSize
	}
	return b
}

// Err returns the first error recorded by the builder.
func (b *ClientBuilder) Err() error { return b.err }

// Build validates the settings and freezes the builder.
func (b *ClientBuilder) Build() (*ClientSettings, error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.built != nil {
		return b.built, nil
	}

	v := b.v
	v.Concerns = v.Concerns.clone()
	v.Hosts = append([]string(nil), v.Hosts...)
	if len(v.Hosts) == 0 {
		v.Hosts = []string{DefaultHost}
	}
	if err := v.Concerns.validate(); err != nil {
		return nil, err
	}
	for setting, d := range map[string]*time.Duration{
		"connectTimeout":         v.ConnectTimeout,
		"serverSelectionTimeout": v.ServerSelectionTimeout,
	} {
		if d != nil && *d < 0 {
			return nil, &InvalidSettingError{Setting: setting, Reason: "must not be negative"}
		}
	}
	if v.credential != nil {
		v.CredentialHash = v.credential.Hash()
	}

	hash, err := hashstructure.Hash(v, hashstructure.FormatV2, nil)
	if err != nil {
		return nil, errors.Wrap(err, "cannot hash client settings")
	}
	b.built = &ClientSettings{v: v, hash: hash, str: formatClient(v)}
	return b.built, nil
}

func formatClient(v clientValues) string {
	var fw fieldWriter
	fw.add("hosts", v.Hosts)
	if v.AppName != "" {
		fw.add("appName", v.AppName)
	}
	if v.ReplicaSet != "" {
		fw.add("replicaSet", v.ReplicaSet)
	}
	if v.credential != nil {
		fw.add("credential", v.credential.String())
	}
	v.Concerns.describe(&fw)
	if v.RetryWrites != nil {
		fw.add("retryWrites", *v.RetryWrites)
	}
	if v.ConnectTimeout != nil {
		fw.add("connectTimeout", *v.ConnectTimeout)
	}
	if v.ServerSelectionTimeout != nil {
		fw.add("serverSelectionTimeout", *v.ServerSelectionTimeout)
	}
	if v.MaxPoolSize != nil {
		fw.add("maxPoolSize", *v.MaxPoolSize)
	}
	return fw.String("ClientSettings")
}

// AppName returns the application name.
func (s *ClientSettings) AppName() string { return s.v.AppName }

// Hosts returns the seed list.
func (s *ClientSettings) Hosts() []string { return append([]string(nil), s.v.Hosts...) }

// ReplicaSet returns the replica set name.
func (s *ClientSettings) ReplicaSet() string { return s.v.ReplicaSet }

// Credential returns the credential, or nil.
func (s *ClientSettings) Credential() *Credential { return s.v.credential }

// ReadConcern returns the read concern level.
func (s *ClientSettings) ReadConcern() (string, bool) { return deref(s.v.Concerns.ReadConcern) }

// ReadPreference returns the read preference mode.
func (s *ClientSettings) ReadPreference() (string, bool) { return deref(s.v.Concerns.ReadPreference) }

// WriteConcern returns a copy of the write concern, or nil.
func (s *ClientSettings) WriteConcern() *WriteConcern { return s.v.Concerns.WriteConcern.clone() }

// Hash returns a hash of the settings, memoized at Build.
func (s *ClientSettings) Hash() uint64 { return s.hash }

// String describes the settings without secrets.
func (s *ClientSettings) String() string { return s.str }

// ClientOptions converts s to the driver's client options.
func (s *ClientSettings) ClientOptions() *options.ClientOptions {
	co := options.Client().SetHosts(s.Hosts())
	if s.v.AppName != "" {
		co.SetAppName(s.v.AppName)
	}
	if s.v.ReplicaSet != "" {
		co.SetReplicaSet(s.v.ReplicaSet)
	}
	if s.v.credential != nil {
		co.SetAuth(s.v.credential.DriverCredential())
	}
	if rc := s.v.Concerns.readConcern(); rc != nil {
		co.SetReadConcern(rc)
	}
	if wc := s.v.Concerns.writeConcern(); wc != nil {
		co.SetWriteConcern(wc)
	}
	if rp := s.v.Concerns.readPref(); rp != nil {
		co.SetReadPreference(rp)
	}
	if s.v.RetryWrites != nil {
		co.SetRetryWrites(*s.v.RetryWrites)
	}
	if s.v.ConnectTimeout != nil {
		co.SetConnectTimeout(*s.v.ConnectTimeout)
	}
	if s.v.ServerSelectionTimeout != nil {
		co.SetServerSelectionTimeout(*s.v.ServerSelectionTimeout)
	}
	if s.v.MaxPoolSize != nil {
		co.SetMaxPoolSize(*s.v.MaxPoolSize)
	}
	return co
}

func deref(s *string) (string, bool) {
	if s == nil {
		return "", false
	}
	return *s, true
}
