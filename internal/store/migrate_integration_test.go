// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 BioAuth Contributors

//go:build integration

package store_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/bioauth/bioauth/internal/store"
)

var _ = Describe("Migrator", Ordered, func() {
	var migrator *store.Migrator

	BeforeAll(func() {
		var err error
		migrator, err = store.NewMigrator(dsn)
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(func() { _ = migrator.Close() })
	})

	It("starts at version zero", func() {
		version, dirty, err := migrator.Version()
		Expect(err).NotTo(HaveOccurred())
		Expect(version).To(BeZero())
		Expect(dirty).To(BeFalse())
	})

	It("applies every migration", func() {
		Expect(migrator.Up()).To(Succeed())

		status, err := migrator.Status()
		Expect(err).NotTo(HaveOccurred())
		for _, m := range status {
			Expect(m.Applied).To(BeTrue(), m.Name)
		}
	})

	It("creates the users table with refresh token columns", func() {
		pool, err := store.Connect(context.Background(), store.ConnectOptions{URL: dsn, Timeout: 10 * time.Second})
		Expect(err).NotTo(HaveOccurred())
		defer pool.Close()

		var columns []string
		rows, err := pool.Query(context.Background(),
			`SELECT column_name FROM information_schema.columns WHERE table_name = 'users' ORDER BY column_name`)
		Expect(err).NotTo(HaveOccurred())
		for rows.Next() {
			var c string
			Expect(rows.Scan(&c)).To(Succeed())
			columns = append(columns, c)
		}
		Expect(rows.Err()).NotTo(HaveOccurred())
		Expect(columns).To(ContainElements("username", "password_hash", "biometric_hash",
			"refresh_token_hash", "refresh_token_created_at"))
	})

	It("steps down and back up", func() {
		Expect(migrator.Steps(-1)).To(Succeed())
		version, _, err := migrator.Version()
		Expect(err).NotTo(HaveOccurred())
		Expect(version).To(Equal(uint(1)))

		Expect(migrator.Steps(1)).To(Succeed())
		version, _, err = migrator.Version()
		Expect(err).NotTo(HaveOccurred())
		Expect(version).To(Equal(uint(2)))
	})

	It("forces a version without running SQL", func() {
		Expect(migrator.Force(1)).To(Succeed())
		version, dirty, err := migrator.Version()
		Expect(err).NotTo(HaveOccurred())
		Expect(version).To(Equal(uint(1)))
		Expect(dirty).To(BeFalse())
		Expect(migrator.Force(2)).To(Succeed())
	})

	It("rolls everything back", func() {
		Expect(migrator.Down()).To(Succeed())
		version, _, err := migrator.Version()
		Expect(err).NotTo(HaveOccurred())
		Expect(version).To(BeZero())
	})
})
