package handlers

import (
	"tableside-order-service/internal/config"
	"tableside-order-service/internal/queue"
	"tableside-order-service/internal/storage"
	"tableside-order-service/internal/ws"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type Handler struct {
	DB       *pgxpool.Pool
	Logger   *zap.Logger
	Config   config.Config
	Queue    *queue.Client
	Notifier ws.Notifier
	Uploads  *storage.LocalStore
	Mirror   *storage.ObjectStore
}
