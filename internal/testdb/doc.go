// Package testdb provides helpers for integration tests that need a real
// PostgreSQL database. Tests using it skip themselves unless DATABASE_URL or
// TASKKOLLECTA_TEST_DB_URL is set.
//
// Each test runs inside a transaction that is rolled back afterwards:
//
//	db := testdb.GetTestDBWithT(t)
//	testdb.SetupTestDatabaseSchema(t, db)
//	testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
//		tasks := postgres.NewPostgresTaskStore(tx, nil)
//		// ...
//	})
package testdb
