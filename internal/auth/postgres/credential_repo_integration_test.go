// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 BioAuth Contributors

//go:build integration

package postgres_test

import (
	"context"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/bioauth/bioauth/internal/auth"
	"github.com/bioauth/bioauth/internal/auth/postgres"
)

var _ = Describe("CredentialRepository", func() {
	var (
		ctx  context.Context
		repo *postgres.CredentialRepository
	)

	BeforeEach(func() {
		ctx = context.Background()
		repo = postgres.NewCredentialRepository(testPool)
		_, err := testPool.Exec(ctx, `TRUNCATE users RESTART IDENTITY`)
		Expect(err).NotTo(HaveOccurred())
	})

	create := func(username string) *auth.UserCredentialRecord {
		rec, err := repo.Create(ctx, auth.NewCredentials{
			Username:      username,
			Email:         username + "@example.com",
			PasswordHash:  "pw-" + username,
			BiometricHash: "bio-" + username,
		})
		Expect(err).NotTo(HaveOccurred())
		return rec
	}

	It("creates and reads back a user", func() {
		rec := create("alice")
		Expect(rec.ID).To(Equal(int64(1)))
		Expect(rec.RefreshTokenHash).To(BeNil())
		Expect(rec.RefreshTokenCreatedAt).To(BeNil())

		byName, err := repo.FindByUsername(ctx, "alice")
		Expect(err).NotTo(HaveOccurred())
		Expect(byName.Email).To(Equal("alice@example.com"))

		byID, err := repo.FindByID(ctx, rec.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(byID.Username).To(Equal("alice"))
	})

	It("rejects a duplicate username", func() {
		create("alice")
		_, err := repo.Create(ctx, auth.NewCredentials{Username: "alice", Email: "x", PasswordHash: "p", BiometricHash: "b"})
		Expect(err).To(MatchError(auth.ErrConflict))
	})

	It("reports missing users", func() {
		_, err := repo.FindByUsername(ctx, "nobody")
		Expect(err).To(MatchError(auth.ErrNotFound))
		_, err = repo.FindByID(ctx, 42)
		Expect(err).To(MatchError(auth.ErrNotFound))
	})

	It("overwrites the refresh token atomically", func() {
		create("alice")
		at := time.Now().UTC().Truncate(time.Microsecond)

		n, err := repo.UpdateRefreshToken(ctx, "alice", "r1", at)
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(Equal(int64(1)))

		n, err = repo.UpdateRefreshToken(ctx, "alice", "r2", at.Add(time.Second))
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(Equal(int64(1)))

		rec, err := repo.FindByUsername(ctx, "alice")
		Expect(err).NotTo(HaveOccurred())
		Expect(*rec.RefreshTokenHash).To(Equal("r2"))
		Expect(rec.RefreshTokenCreatedAt.Equal(at.Add(time.Second))).To(BeTrue())
	})

	It("keeps hash and timestamp paired under concurrent logins", func() {
		create("alice")
		base := time.Now().UTC().Truncate(time.Second)

		var wg sync.WaitGroup
		for i := range 10 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				defer GinkgoRecover()
				at := base.Add(time.Duration(i) * time.Second)
				_, err := repo.UpdateRefreshToken(ctx, "alice", at.Format(time.RFC3339), at)
				Expect(err).NotTo(HaveOccurred())
			}()
		}
		wg.Wait()

		rec, err := repo.FindByUsername(ctx, "alice")
		Expect(err).NotTo(HaveOccurred())
		Expect(*rec.RefreshTokenHash).To(Equal(rec.RefreshTokenCreatedAt.UTC().Format(time.RFC3339)))
	})

	It("returns zero rows for unknown users", func() {
		n, err := repo.UpdateRefreshToken(ctx, "ghost", "r", time.Now())
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(BeZero())

		n, err = repo.UpdateBiometricHash(ctx, "ghost", "b")
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(BeZero())
	})

	It("replaces the biometric hash", func() {
		create("alice")
		n, err := repo.UpdateBiometricHash(ctx, "alice", "bio-2")
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(Equal(int64(1)))

		rec, err := repo.FindByUsername(ctx, "alice")
		Expect(err).NotTo(HaveOccurred())
		Expect(rec.BiometricHash).To(Equal("bio-2"))
		Expect(rec.UpdatedAt).To(BeTemporally(">=", rec.CreatedAt))
	})
})
