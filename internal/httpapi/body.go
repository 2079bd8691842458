// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 BioAuth Contributors

package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"net/url"

	"github.com/samber/oops"
)

// maxBodyBytes bounds request bodies; credential payloads are tiny.
const maxBodyBytes = 64 << 10

type registerBody struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
}

func (b *registerBody) fromForm(v url.Values) {
	b.Username, b.Password, b.Email = v.Get("username"), v.Get("password"), v.Get("email")
}

type loginBody struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	Biometric string `json:"biometric"`
}

func (b *loginBody) fromForm(v url.Values) {
	b.Username, b.Password, b.Biometric = v.Get("username"), v.Get("password"), v.Get("biometric")
}

type refreshTokenBody struct {
	Username     string `json:"username"`
	RefreshToken string `json:"refreshToken"`
}

func (b *refreshTokenBody) fromForm(v url.Values) {
	b.Username, b.RefreshToken = v.Get("username"), v.Get("refreshToken")
}

type formBody interface {
	fromForm(url.Values)
}

// decodeBody fills dst from a JSON or URL-encoded body. An empty body leaves
// dst zero so the flow reports the missing fields itself.
func decodeBody(w http.ResponseWriter, r *http.Request, dst formBody) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type")) //nolint:errcheck // empty or bad type falls back to JSON
	if mediaType == "application/x-www-form-urlencoded" {
		if err := r.ParseForm(); err != nil {
			return malformed(err)
		}
		dst.fromForm(r.PostForm)
		return nil
	}

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return malformed(err)
	}
	return nil
}

func malformed(err error) error {
	return oops.Code(CodeMalformedBody).Public("Malformed request body").Wrap(err)
}
