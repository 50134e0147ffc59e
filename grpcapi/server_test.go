package grpcapi

import (
	"context"
	"net"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/inventory_backend/config"
	"github.com/mmdatafocus/inventory_backend/middlewares"
	"github.com/mmdatafocus/inventory_backend/models"
	"github.com/mmdatafocus/inventory_backend/utils"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	config.SetSettings(&config.Settings{
		JwtAccessSecret:          "access-secret",
		JwtRefreshSecret:         "refresh-secret",
		AccessTokenHourLifespan:  24,
		RefreshTokenHourLifespan: 168,
		TrashRetentionDays:       30,
	})
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open("file:grpc_"+name+"?mode=memory&cache=shared"), config.NewGormConfig())
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := config.SetDB(db); err != nil {
		t.Fatalf("set db: %v", err)
	}
	if err := models.MigrateTable(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
}

// dialTestServer serves NewServer over an in-memory listener, with the guard
// calling a real device id endpoint.
func dialTestServer(t *testing.T) *grpc.ClientConn {
	t.Helper()
	r := gin.New()
	r.GET("/auth/deviceId", middlewares.DeviceIdHandler())
	identity := httptest.NewServer(r)
	t.Cleanup(identity.Close)

	lis := bufconn.Listen(1 << 20)
	srv := NewServer(middlewares.NewGuard(middlewares.NewIdentityClient(identity.URL, time.Second)))
	go srv.Serve(lis)
	t.Cleanup(srv.Stop)

	conn, err := grpc.DialContext(context.Background(), "bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func seedInventory(t *testing.T) {
	t.Helper()
	ctx := utils.SetShopsIdInContext(context.Background(), "shop-1")
	ctx = utils.SetUserNameInContext(ctx, "alice")
	typeRes, err := models.UpsertInventoryType(ctx, &models.NewLookup{Name: "Beverages"})
	if err != nil {
		t.Fatalf("upsert type: %v", err)
	}
	brandRes, err := models.UpsertInventoryBrand(ctx, &models.NewLookup{Name: "Acme"})
	if err != nil {
		t.Fatalf("upsert brand: %v", err)
	}
	for _, name := range []string{"Cola", "Soda"} {
		_, err := models.UpsertInventory(ctx, &models.NewInventory{
			Name:            name,
			InventoryTypeId: typeRes.Id,
			BrandTypeId:     brandRes.Id,
			Amount:          1,
		})
		if err != nil {
			t.Fatalf("upsert inventory: %v", err)
		}
	}
}

func TestListInventoryNames(t *testing.T) {
	setupTestDB(t)
	seedInventory(t)
	if _, err := models.CreateShopUser(context.Background(), "shop-1", "seed", &models.NewUser{Username: "alice", Password: "secret-pw"}); err != nil {
		t.Fatalf("create user: %v", err)
	}
	info, err := models.Login(context.Background(), "alice", "secret-pw")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	client := NewInventoryServiceClient(dialTestServer(t))
	ctx := metadata.AppendToOutgoingContext(context.Background(), "authorization", "Bearer "+info.AccessToken)
	res, err := client.ListInventoryNames(ctx, &ListInventoryNamesRequest{})
	if err != nil {
		t.Fatalf("list names: %v", err)
	}
	if res.Status.Code != 200 || len(res.Names) != 2 {
		t.Fatalf("unexpected response %+v", res)
	}
}

func TestListInventoryNamesRequiresSession(t *testing.T) {
	setupTestDB(t)
	conn := dialTestServer(t)
	client := NewInventoryServiceClient(conn)

	_, err := client.ListInventoryNames(context.Background(), &ListInventoryNamesRequest{})
	if status.Code(err) != codes.Unauthenticated {
		t.Fatalf("expected unauthenticated, got %v", err)
	}

	ctx := metadata.AppendToOutgoingContext(context.Background(), "authorization", "Bearer forged")
	_, err = client.ListInventoryNames(ctx, &ListInventoryNamesRequest{})
	if status.Code(err) != codes.Unauthenticated {
		t.Fatalf("expected unauthenticated, got %v", err)
	}

	health, err := healthpb.NewHealthClient(conn).Check(context.Background(), &healthpb.HealthCheckRequest{Service: serviceName})
	if err != nil || health.Status != healthpb.HealthCheckResponse_SERVING {
		t.Fatalf("unexpected health %v %v", health, err)
	}
}
