// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch

// Package auth verifies the JWT bearer tokens the Resource Service's
// HTTP surface requires, grounded on the JWK-set-backed verification
// idiom of lestrrat-go/jwx/v2: fetch and cache the issuer's published
// keys, then parse/verify each incoming token against them.
package auth

import (
	"context"
	"fmt"

	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jwt"

	"github.com/the-hive/internal/config"
)

// Claims is the subset of a verified token's claims the Resource
// Service cares about.
type Claims struct {
	OwnerID   string
	Superuser bool
}

// Verifier validates bearer tokens against a remote JWKS endpoint.
type Verifier struct {
	cache   *jwk.Cache
	jwksURL string
	issuer  string
}

// NewVerifier builds a Verifier that refreshes cfg.JWKSURL's key set in
// the background on jwk.Cache's default schedule.
func NewVerifier(ctx context.Context, cfg config.AuthConfig) (*Verifier, error) {
	cache := jwk.NewCache(ctx)
	if err := cache.Register(cfg.JWKSURL); err != nil {
		return nil, fmt.Errorf("registering JWKS url %s: %w", cfg.JWKSURL, err)
	}
	if _, err := cache.Refresh(ctx, cfg.JWKSURL); err != nil {
		return nil, fmt.Errorf("fetching initial JWKS from %s: %w", cfg.JWKSURL, err)
	}
	return &Verifier{cache: cache, jwksURL: cfg.JWKSURL, issuer: cfg.Issuer}, nil
}

// Verify parses and validates tokenString, returning the caller identity.
func (v *Verifier) Verify(ctx context.Context, tokenString string) (Claims, error) {
	keySet, err := v.cache.Get(ctx, v.jwksURL)
	if err != nil {
		return Claims{}, fmt.Errorf("loading JWKS: %w", err)
	}

	opts := []jwt.ParseOption{jwt.WithKeySet(keySet), jwt.WithValidate(true)}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	token, err := jwt.Parse([]byte(tokenString), opts...)
	if err != nil {
		return Claims{}, fmt.Errorf("invalid token: %w", err)
	}

	claims := Claims{OwnerID: token.Subject()}
	if su, ok := token.Get("superuser"); ok {
		if b, ok := su.(bool); ok {
			claims.Superuser = b
		}
	}
	if claims.OwnerID == "" {
		return Claims{}, fmt.Errorf("token missing subject claim")
	}
	return claims, nil
}
