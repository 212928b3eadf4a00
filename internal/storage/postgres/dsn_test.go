package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/GoSim-25-26J-441/nft-studio-backend/config"
)

func TestDSN(t *testing.T) {
	cfg := &config.DatabaseConfig{Host: "db", Port: 5433, User: "u", Password: "p", Name: "nfts"}
	assert.Equal(t, "host=db port=5433 user=u password=p dbname=nfts sslmode=disable", DSN(cfg))

	cfg.DSN = "postgres://u:p@db/nfts"
	assert.Equal(t, "postgres://u:p@db/nfts", DSN(cfg))
}
