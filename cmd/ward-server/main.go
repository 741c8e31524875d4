package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	mongoopts "go.mongodb.org/mongo-driver/mongo/options"

	"github.com/careward/careward/internal/config"
	"github.com/careward/careward/internal/domain/labreport"
	"github.com/careward/careward/internal/domain/nurse"
	"github.com/careward/careward/internal/domain/patient"
	"github.com/careward/careward/internal/domain/prescription"
	"github.com/careward/careward/internal/platform/auth"
	"github.com/careward/careward/internal/platform/blobstore"
	"github.com/careward/careward/internal/platform/db"
	"github.com/careward/careward/internal/platform/docgen"
	"github.com/careward/careward/internal/platform/idgen"
	"github.com/careward/careward/internal/platform/middleware"
)

// prescriptionPatients adapts the patient service to the lookup interface
// the prescription package needs, avoiding a cross-domain import.
type prescriptionPatients struct {
	svc *patient.Service
}

func (a prescriptionPatients) Lookup(ctx context.Context, patientID string) (*prescription.PatientInfo, error) {
	p, err := a.svc.Get(ctx, patientID)
	if err != nil {
		return nil, err
	}
	return &prescription.PatientInfo{PatientID: p.PatientID, Name: p.Name, Age: p.Age, Gender: p.Gender}, nil
}

// labPatients does the same for the lab report package.
type labPatients struct {
	svc *patient.Service
}

func (a labPatients) Lookup(ctx context.Context, patientID string) (*labreport.PatientInfo, error) {
	p, err := a.svc.Get(ctx, patientID)
	if err != nil {
		return nil, err
	}
	return &labreport.PatientInfo{PatientID: p.PatientID, Name: p.Name, Age: p.Age, Gender: p.Gender}, nil
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "ward-server",
		Short: "Hospital ward API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(indexesCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the ward API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func indexesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "indexes",
		Short: "Ensure MongoDB indexes",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ensureIndexes()
		},
	}
}

func newLogger(dev bool) zerolog.Logger {
	if dev {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := newLogger(cfg.IsDev())
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx := context.Background()
	client, err := db.Connect(ctx, cfg.MongoURI)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer func() {
		_ = client.Disconnect(context.Background())
	}()
	logger.Info().Str("db", cfg.MongoDB).Msg("connected to database")

	database := client.Database(cfg.MongoDB)

	// Platform
	blobs, err := blobstore.NewGridFSStore(database)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open blob store")
	}
	ids := idgen.New(idgen.NewMongoCounters(database))
	pipeline := docgen.NewPipeline(blobs, ids, docgen.NewPDFRenderer())

	// Domains
	patientSvc := patient.NewService(patient.NewMongoRepository(database), blobs, ids)
	jwtTTL := time.Duration(cfg.JWTTTLMinutes) * time.Minute
	nurseSvc := nurse.NewService(nurse.NewMongoRepository(database), ids, cfg.JWTSecret, jwtTTL, cfg.BcryptCost)
	prescriptionSvc := prescription.NewService(
		prescription.NewMongoRepository(database), prescriptionPatients{patientSvc}, pipeline)
	labSvc := labreport.NewService(
		labreport.NewMongoRepository(database), labPatients{patientSvc}, pipeline)

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", middleware.HeaderRequestID},
	}))

	e.GET("/health", func(c echo.Context) error {
		if err := db.Health(c.Request().Context(), client); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "down"})
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	public := e.Group("/api/v1")
	api := e.Group("/api/v1", auth.Middleware(cfg.JWTSecret, nurseSvc))

	nurse.NewHandler(nurseSvc).RegisterRoutes(public, api)
	patient.NewHandler(patientSvc).RegisterRoutes(api)
	prescription.NewHandler(prescriptionSvc).RegisterRoutes(api)
	labreport.NewHandler(labSvc).RegisterRoutes(api)

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}

func ensureIndexes() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := newLogger(cfg.IsDev())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := db.Connect(ctx, cfg.MongoURI)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Disconnect(context.Background())
	}()

	database := client.Database(cfg.MongoDB)
	unique := mongoopts.Index().SetUnique(true)

	indexes := []struct {
		coll  string
		model mongo.IndexModel
	}{
		{patient.CollectionName, mongo.IndexModel{
			Keys: bson.D{{Key: "patient_id", Value: 1}}, Options: unique}},
		{nurse.CollectionName, mongo.IndexModel{
			Keys: bson.D{{Key: "email", Value: 1}}, Options: unique}},
		{nurse.CollectionName, mongo.IndexModel{
			Keys: bson.D{{Key: "nurse_id", Value: 1}}, Options: unique}},
		{prescription.CollectionName, mongo.IndexModel{
			Keys: bson.D{{Key: "patient_id", Value: 1}, {Key: "date", Value: -1}}}},
		{labreport.CollectionName, mongo.IndexModel{
			Keys: bson.D{{Key: "patient_id", Value: 1}, {Key: "date", Value: -1}}}},
	}

	for _, idx := range indexes {
		name, err := database.Collection(idx.coll).Indexes().CreateOne(ctx, idx.model)
		if err != nil {
			return fmt.Errorf("create index on %s: %w", idx.coll, err)
		}
		logger.Info().Str("collection", idx.coll).Str("index", name).Msg("index ensured")
	}
	return nil
}
