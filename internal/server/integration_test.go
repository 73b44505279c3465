//go:build integration

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"card-manager/internal/config"
)

// IntegrationTestSuite drives the HTTP API over a real listener against Postgres
// with the SQL session store.
type IntegrationTestSuite struct {
	suite.Suite
	postgresContainer testcontainers.Container
	serverInstance    *Server
	baseURL           string
	client            *http.Client
}

func (suite *IntegrationTestSuite) SetupSuite() {
	ctx := context.Background()

	containerReq := testcontainers.ContainerRequest{
		Image:        "postgres:15-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_DB":       "card_manager",
			"POSTGRES_USER":     "postgres",
			"POSTGRES_PASSWORD": "password",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(30 * time.Second),
	}

	postgresContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: containerReq,
		Started:          true,
	})
	if err != nil {
		suite.T().Fatalf("Failed to start postgres container: %s", err)
	}
	suite.postgresContainer = postgresContainer

	host, err := postgresContainer.Host(ctx)
	require.NoError(suite.T(), err)
	port, err := postgresContainer.MappedPort(ctx, "5432")
	require.NoError(suite.T(), err)

	cfg := &config.Config{
		DBDriver:     config.DriverPostgres,
		DBHost:       host,
		DBPort:       port.Port(),
		DBUser:       "postgres",
		DBPassword:   "password",
		DBName:       "card_manager",
		DBSSLMode:    "disable",
		ServerPort:   "0",
		SessionStore: config.SessionStoreSQL,
	}

	serverInstance, serverPort, err := StartServer(ctx, cfg)
	if err != nil {
		suite.T().Fatalf("Failed to start application server: %s", err)
	}
	suite.serverInstance = serverInstance
	suite.baseURL = "http://localhost:" + serverPort
	suite.client = &http.Client{Timeout: 30 * time.Second}

	require.NoError(suite.T(), suite.waitForServerReady())
}

func (suite *IntegrationTestSuite) waitForServerReady() error {
	timeout := 30 * time.Second
	start := time.Now()

	for time.Since(start) < timeout {
		resp, err := suite.client.Get(suite.baseURL + "/health")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		time.Sleep(100 * time.Millisecond)
	}
	return fmt.Errorf("server not ready after %v", timeout)
}

func (suite *IntegrationTestSuite) TearDownSuite() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if suite.serverInstance != nil {
		suite.serverInstance.Stop(ctx)
	}
	if suite.postgresContainer != nil {
		suite.postgresContainer.Terminate(ctx)
	}
}

// call sends a JSON request and returns the status and the decoded data field.
func (suite *IntegrationTestSuite) call(method, path string, body interface{}, data interface{}) int {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(suite.T(), err)
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, suite.baseURL+path, reader)
	require.NoError(suite.T(), err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := suite.client.Do(req)
	require.NoError(suite.T(), err)
	defer resp.Body.Close()

	if data != nil {
		var env struct {
			Data json.RawMessage `json:"data"`
		}
		require.NoError(suite.T(), json.NewDecoder(resp.Body).Decode(&env))
		require.NoError(suite.T(), json.Unmarshal(env.Data, data))
	}
	return resp.StatusCode
}

func (suite *IntegrationTestSuite) assertDecimalEqual(expected, actual string) {
	assert.True(suite.T(), decimal.RequireFromString(expected).Equal(decimal.RequireFromString(actual)),
		"Decimal values not equal: expected %s, got %s", expected, actual)
}

func (suite *IntegrationTestSuite) TestAccountCardPaymentFlow() {
	require.Equal(suite.T(), http.StatusCreated, suite.call("POST", "/accounts", map[string]string{"user_id": "alice"}, nil))
	assert.Equal(suite.T(), http.StatusConflict, suite.call("POST", "/accounts", map[string]string{"user_id": "alice"}, nil))

	var card struct {
		CardID int64 `json:"card_id"`
	}
	require.Equal(suite.T(), http.StatusCreated, suite.call("POST", "/accounts/alice/cards", map[string]string{
		"number":          "4111111111111111",
		"expiration_date": "2030-12-31T00:00:00Z",
		"cvv":             "999",
	}, &card))

	payment := map[string]interface{}{
		"user_id":     "alice",
		"card_id":     card.CardID,
		"card_number": "4111111111111111",
		"amount":      "12.34",
		"merchant":    "Amazon",
	}
	assert.Equal(suite.T(), http.StatusCreated, suite.call("POST", "/payments", payment, nil))

	payment["card_number"] = "4000000000000000"
	assert.Equal(suite.T(), http.StatusUnprocessableEntity, suite.call("POST", "/payments", payment, nil))

	var account struct {
		Balance string `json:"balance"`
	}
	require.Equal(suite.T(), http.StatusOK, suite.call("GET", "/accounts/alice", nil, &account))
	suite.assertDecimalEqual("12.34", account.Balance)

	var balance struct {
		Balance string `json:"balance"`
	}
	require.Equal(suite.T(), http.StatusOK, suite.call("GET", "/accounts/alice/balance?merchant=Amazon", nil, &balance))
	suite.assertDecimalEqual("12.34", balance.Balance)
}

func (suite *IntegrationTestSuite) TestConcurrentPayments() {
	require.Equal(suite.T(), http.StatusCreated, suite.call("POST", "/accounts", map[string]string{"user_id": "bob"}, nil))

	var card struct {
		CardID int64 `json:"card_id"`
	}
	require.Equal(suite.T(), http.StatusCreated, suite.call("POST", "/accounts/bob/cards", map[string]string{
		"number":          "5555555555554444",
		"expiration_date": "2030-12-31T00:00:00Z",
		"cvv":             "111",
	}, &card))

	const payments = 20
	var wg sync.WaitGroup
	statuses := make(chan int, payments)
	for i := 0; i < payments; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			statuses <- suite.call("POST", "/payments", map[string]interface{}{
				"user_id":     "bob",
				"card_id":     card.CardID,
				"card_number": "5555555555554444",
				"amount":      "1.50",
				"merchant":    "Cafe",
			}, nil)
		}()
	}
	wg.Wait()
	close(statuses)

	for status := range statuses {
		assert.Equal(suite.T(), http.StatusCreated, status)
	}

	var account struct {
		Balance string `json:"balance"`
	}
	require.Equal(suite.T(), http.StatusOK, suite.call("GET", "/accounts/bob", nil, &account))
	suite.assertDecimalEqual("30", account.Balance)
}

func (suite *IntegrationTestSuite) TestLoginWithSQLSessions() {
	require.Equal(suite.T(), http.StatusCreated, suite.call("POST", "/accounts", map[string]string{"user_id": "carol"}, nil))
	require.Equal(suite.T(), http.StatusNoContent, suite.call("PUT", "/accounts/carol/password", map[string]string{"password": "pw"}, nil))

	var session struct {
		Token string `json:"token"`
	}
	require.Equal(suite.T(), http.StatusCreated, suite.call("POST", "/sessions", map[string]string{"user_id": "carol", "password": "pw"}, &session))

	assert.Equal(suite.T(), http.StatusOK, suite.call("GET", "/sessions/"+session.Token, nil, nil))
	assert.Equal(suite.T(), http.StatusNoContent, suite.call("DELETE", "/sessions/"+session.Token, nil, nil))
	assert.Equal(suite.T(), http.StatusNotFound, suite.call("GET", "/sessions/"+session.Token, nil, nil))
}

func TestIntegrationTestSuite(t *testing.T) {
	suite.Run(t, new(IntegrationTestSuite))
}
