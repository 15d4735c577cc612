package oidc

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/oauth2"
)

// TokenExchanger obtains an ID token from the identity provider.
type TokenExchanger interface {
	PasswordLogin(ctx context.Context, username, password string) (string, error)
	ExchangeCode(ctx context.Context, code, redirectURI string) (string, error)
}

// KeycloakClient talks to a realm's token endpoint.
type KeycloakClient struct {
	conf oauth2.Config
}

func NewKeycloakClient(baseURL, realm, clientID, clientSecret string) *KeycloakClient {
	issuer := IssuerURL(baseURL, realm)
	return &KeycloakClient{conf: oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint: oauth2.Endpoint{
			AuthURL:  issuer + "/protocol/openid-connect/auth",
			TokenURL: issuer + "/protocol/openid-connect/token",
		},
		Scopes: []string{"openid", "profile", "email"},
	}}
}

// PasswordLogin uses the resource-owner password grant (dev and test realms).
func (k *KeycloakClient) PasswordLogin(ctx context.Context, username, password string) (string, error) {
	tok, err := k.conf.PasswordCredentialsToken(ctx, username, password)
	if err != nil {
		return "", err
	}
	return idToken(tok)
}

func (k *KeycloakClient) ExchangeCode(ctx context.Context, code, redirectURI string) (string, error) {
	conf := k.conf
	conf.RedirectURL = redirectURI
	tok, err := conf.Exchange(ctx, code)
	if err != nil {
		return "", err
	}
	return idToken(tok)
}

func idToken(tok *oauth2.Token) (string, error) {
	raw, _ := tok.Extra("id_token").(string)
	if strings.TrimSpace(raw) == "" {
		return "", errors.New("token response carries no id_token")
	}
	return raw, nil
}
