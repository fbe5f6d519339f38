// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package settings

import (
	"fmt"
	"strings"

	"github.com/mitchellh/hashstructure/v2"
	"github.com/pkg/errors"
	"github.com/xdg/stringprep"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Authentication mechanisms.
const (
	MechanismSCRAMSHA1   = "SCRAM-SHA-1"
	MechanismSCRAMSHA256 = "SCRAM-SHA-256"
	MechanismX509        = "MONGODB-X509"
	MechanismPLAIN       = "PLAIN"
	MechanismGSSAPI      = "GSSAPI"
	MechanismAWS         = "MONGODB-AWS"
)

var externalMechanisms = map[string]bool{
	MechanismX509:   true,
	MechanismPLAIN:  true,
	MechanismGSSAPI: true,
	MechanismAWS:    true,
}

type credentialValues struct {
	Mechanism   string
	Source      string
	Username    string
	Password    string `hash:"ignore"`
	PasswordSet bool
}

// Credential holds the authentication settings of a client. It is immutable.
type Credential struct {
	v    credentialValues
	hash uint64
	str  string
}

// CredentialBuilder builds a Credential.
type CredentialBuilder struct {
	v     credentialValues
	built *Credential
	err   error
}

// NewCredential returns a new CredentialBuilder.
func NewCredential() *CredentialBuilder {
	return &CredentialBuilder{}
}

func (b *CredentialBuilder) set(fn func(*credentialValues)) *CredentialBuilder {
	if b.built != nil {
		b.err = ErrFrozen
		return b
	}
	fn(&b.v)
	return b
}

// SetMechanism sets the authentication mechanism. An empty mechanism lets
// the server negotiate a SCRAM mechanism.
func (b *CredentialBuilder) SetMechanism(m string) *CredentialBuilder {
	return b.set(func(v *credentialValues) { v.Mechanism = strings.ToUpper(m) })
}

// SetSource sets the database that holds the user.
func (b *CredentialBuilder) SetSource(s string) *CredentialBuilder {
	return b.set(func(v *credentialValues) { v.Source = s })
}

// SetUsername sets the user name.
func (b *CredentialBuilder) SetUsername(u string) *CredentialBuilder {
	return b.set(func(v *credentialValues) { v.Username = u })
}

// SetPassword sets the password. An empty password is distinct from no
// password.
func (b *CredentialBuilder) SetPassword(p string) *CredentialBuilder {
	return b.set(func(v *credentialValues) {
		v.Password = p
		v.PasswordSet = true
	})
}

// Err returns the first error recorded by the builder.
func (b *CredentialBuilder) Err() error { return b.err }

// Build validates the settings and freezes the builder. Later calls return
// the same Credential unless a setter was called after the first Build.
func (b *CredentialBuilder) Build() (*Credential, error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.built != nil {
		return b.built, nil
	}

	v := b.v
	switch {
	case v.Mechanism == MechanismX509:
		if v.PasswordSet {
			return nil, &InvalidSettingError{Setting: "password", Reason: "not allowed with " + MechanismX509}
		}
	case v.Mechanism == MechanismAWS:
	case v.Username == "":
		return nil, &InvalidSettingError{Setting: "username", Reason: "required for " + mechanismName(v.Mechanism)}
	}
	if v.Source == "" {
		v.Source = "admin"
		if externalMechanisms[v.Mechanism] {
			v.Source = "$external"
		}
	}
	if v.Mechanism == MechanismSCRAMSHA256 && v.PasswordSet {
		prepped, err := stringprep.SASLprep.Prepare(v.Password)
		if err != nil {
			return nil, errors.Wrap(err, "cannot prepare SCRAM-SHA-256 password")
		}
		v.Password = prepped
	}

	hash, err := hashstructure.Hash(v, hashstructure.FormatV2, nil)
	if err != nil {
		return nil, errors.Wrap(err, "cannot hash credential")
	}
	b.built = &Credential{v: v, hash: hash, str: formatCredential(v)}
	return b.built, nil
}

func mechanismName(m string) string {
	if m == "" {
		return "the default mechanism"
	}
	return m
}

func formatCredential(v credentialValues) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Credential{mechanism=%q, source=%q, username=%q", v.Mechanism, v.Source, v.Username)
	if v.PasswordSet {
		sb.WriteString(", password=" + redactedPassword)
	}
	sb.WriteString("}")
	return sb.String()
}

// Mechanism returns the authentication mechanism.
func (c *Credential) Mechanism() string { return c.v.Mechanism }

// Source returns the authentication database.
func (c *Credential) Source() string { return c.v.Source }

// Username returns the user name.
func (c *Credential) Username() string { return c.v.Username }

// Password returns the password, SASLprep-normalized for SCRAM-SHA-256.
func (c *Credential) Password() (string, bool) { return c.v.Password, c.v.PasswordSet }

// Hash returns a hash of the credential. The password is not part of it.
func (c *Credential) Hash() uint64 { return c.hash }

// String returns a description of the credential without the password.
func (c *Credential) String() string { return c.str }

// DriverCredential converts c to the driver's credential options.
func (c *Credential) DriverCredential() options.Credential {
	return options.Credential{
		AuthMechanism: c.v.Mechanism,
		AuthSource:    c.v.Source,
		Username:      c.v.Username,
		Password:      c.v.Password,
		PasswordSet:   c.v.PasswordSet,
	}
}
