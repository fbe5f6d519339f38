// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package settings

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/x/mongo/driver/connstring"
)

const redactedPassword = "<redacted>"

// URL is a parsed and validated connection string. It is immutable.
type URL struct {
	scheme                 string
	hosts                  []string
	database               string
	appName                string
	replicaSet             string
	authMechanism          string
	authSource             string
	username               string
	password               string
	passwordSet            bool
	readConcernLevel       string
	readPreference         string
	writeConcern           *WriteConcern
	retryWrites            *bool
	connectTimeout         *time.Duration
	serverSelectionTimeout *time.Duration
	maxPoolSize            *uint64

	str string
}

// ParseURL parses and validates a mongodb:// or mongodb+srv:// connection
// string.
func ParseURL(uri string) (*URL, error) {
	cs, err := connstring.ParseAndValidate(uri)
	if err != nil {
		return nil, errors.Wrap(err, "cannot parse connection string")
	}

	u := &URL{
		scheme:           cs.Scheme,
		hosts:            append([]string(nil), cs.Hosts...),
		database:         cs.Database,
		appName:          cs.AppName,
		replicaSet:       cs.ReplicaSet,
		authMechanism:    cs.AuthMechanism,
		authSource:       cs.AuthSource,
		username:         cs.Username,
		password:         cs.Password,
		passwordSet:      cs.PasswordSet,
		readConcernLevel: cs.ReadConcernLevel,
		readPreference:   cs.ReadPreference,
	}

	if cs.WNumberSet || cs.WString != "" || cs.JSet || cs.WTimeoutSet {
		wc := &WriteConcern{}
		switch {
		case cs.WNumberSet:
			wc.W = cs.WNumber
		case cs.WString != "":
			wc.W = cs.WString
		}
		if cs.JSet {
			j := cs.J
			wc.Journal = &j
		}
		if cs.WTimeoutSet {
			wc.WTimeout = cs.WTimeout
		}
		u.writeConcern = wc
	}
	if cs.RetryWritesSet {
		rw := cs.RetryWrites
		u.retryWrites = &rw
	}
	if cs.ConnectTimeoutSet {
		d := cs.ConnectTimeout
		u.connectTimeout = &d
	}
	if cs.ServerSelectionTimeoutSet {
		d := cs.ServerSelectionTimeout
		u.serverSelectionTimeout = &d
	}
	if cs.MaxPoolSizeSet {
		n := cs.MaxPoolSize
		u.maxPoolSize = &n
	}

	u.str = redact(uri)
	return u, nil
}

// redact replaces the password of the user information in uri.
func redact(uri string) string {
	schemeEnd := strings.Index(uri, "://")
	if schemeEnd < 0 {
		return uri
	}
	rest := uri[schemeEnd+3:]
	hostEnd := strings.IndexAny(rest, "/?")
	if hostEnd < 0 {
		hostEnd = len(rest)
	}
	at := strings.LastIndex(rest[:hostEnd], "@")
	if at < 0 {
		return uri
	}
	userinfo := rest[:at]
	colon := strings.Index(userinfo, ":")
	if colon < 0 {
		return uri
	}
	return uri[:schemeEnd+3] + userinfo[:colon+1] + redactedPassword + rest[at:]
}

// Scheme returns "mongodb" or "mongodb+srv".
func (u *URL) Scheme() string { return u.scheme }

// Hosts returns the seed list.
func (u *URL) Hosts() []string { return append([]string(nil), u.hosts...) }

// Database returns the default database.
func (u *URL) Database() string { return u.database }

// AppName returns the appName option.
func (u *URL) AppName() string { return u.appName }

// ReplicaSet returns the replicaSet option.
func (u *URL) ReplicaSet() string { return u.replicaSet }

// Username returns the user name of the user information.
func (u *URL) Username() string { return u.username }

// HasCredential reports whether the URL carries a user name or an
// authentication mechanism.
func (u *URL) HasCredential() bool { return u.username != "" || u.authMechanism != "" }

// Credential builds the credential described by the URL.
func (u *URL) Credential() (*Credential, error) {
	b := NewCredential().
		SetMechanism(u.authMechanism).
		SetSource(u.authSource).
		SetUsername(u.username)
	if u.passwordSet {
		b.SetPassword(u.password)
	}
	return b.Build()
}

// String returns the connection string with the password redacted.
func (u *URL) String() string { return u.str }
