package storage

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"abonado-server-go/internal/domain/subscriber/aggregate"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:repo-%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&Subscriber{}, &User{}, &DomainEvent{}); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}
	return db
}

func seedSubscriber(t *testing.T, db *gorm.DB) *aggregate.Subscriber {
	t.Helper()
	repo := NewSubscriberRepository(db)
	sub, err := aggregate.NewSubscriber("12345", "clave")
	assert.NoError(t, err)
	assert.NoError(t, repo.Save(context.Background(), sub))
	return sub
}

func TestSubscriberRepository_SaveAndFind(t *testing.T) {
	db := newTestDB(t)
	repo := NewSubscriberRepository(db)
	ctx := context.Background()

	sub := seedSubscriber(t, db)
	assert.NotZero(t, sub.ID)

	byID, err := repo.FindByID(ctx, sub.ID)
	assert.NoError(t, err)
	assert.Equal(t, "12345", byID.SubscriberNumber)
	assert.Equal(t, "clave", byID.Password)

	byNumber, err := repo.FindBySubscriberNumber(ctx, "12345")
	assert.NoError(t, err)
	assert.Equal(t, sub.ID, byNumber.ID)
}

func TestSubscriberRepository_MissingIsNilNil(t *testing.T) {
	db := newTestDB(t)
	repo := NewSubscriberRepository(db)
	ctx := context.Background()

	byID, err := repo.FindByID(ctx, 999)
	assert.NoError(t, err)
	assert.Nil(t, byID)

	byNumber, err := repo.FindBySubscriberNumber(ctx, "99999")
	assert.NoError(t, err)
	assert.Nil(t, byNumber)
}

func TestSubscriberRepository_Update(t *testing.T) {
	db := newTestDB(t)
	repo := NewSubscriberRepository(db)
	ctx := context.Background()

	sub := seedSubscriber(t, db)
	onu := 7
	assert.NoError(t, sub.ApplyProvisioning("OLT01", "1/1", &onu, aggregate.BrandBDCOM, "AA:BB:CC:DD:EE:10"))
	assert.NoError(t, repo.Update(ctx, sub))

	got, err := repo.FindByID(ctx, sub.ID)
	assert.NoError(t, err)
	assert.Equal(t, "OLT01", got.OLT)
	assert.Equal(t, 7, *got.ONU)
	assert.Equal(t, aggregate.BrandBDCOM, got.Brand)
	assert.Equal(t, "AA:BB:CC:DD:EE:15", got.AdjustedMAC)
}

func TestSubscriberRepository_ClearProvisioning(t *testing.T) {
	db := newTestDB(t)
	repo := NewSubscriberRepository(db)
	ctx := context.Background()

	sub := seedSubscriber(t, db)
	onu := 7
	assert.NoError(t, sub.ApplyProvisioning("OLT01", "1/1", &onu, aggregate.BrandLatic, "AA:BB:CC:DD:EE:10"))
	assert.NoError(t, repo.Update(ctx, sub))

	assert.NoError(t, repo.ClearProvisioning(ctx, sub.ID))

	got, err := repo.FindByID(ctx, sub.ID)
	assert.NoError(t, err)
	assert.Equal(t, "", got.OLT)
	assert.Equal(t, "", got.Interface)
	assert.Nil(t, got.ONU)
	assert.Equal(t, aggregate.Brand(""), got.Brand)
	assert.Equal(t, "", got.MAC)
	assert.Equal(t, "", got.AdjustedMAC)
	// 号码与凭证保留
	assert.Equal(t, "12345", got.SubscriberNumber)
	assert.Equal(t, "clave", got.Password)

	// 幂等：重复清除与清除不存在的行都不报错
	assert.NoError(t, repo.ClearProvisioning(ctx, sub.ID))
	assert.NoError(t, repo.ClearProvisioning(ctx, 999))
}

func TestSubscriberRepository_FindAllOrder(t *testing.T) {
	db := newTestDB(t)
	repo := NewSubscriberRepository(db)
	ctx := context.Background()

	for _, n := range []string{"11111", "22222", "33333"} {
		sub, err := aggregate.NewSubscriber(n, "clave")
		assert.NoError(t, err)
		assert.NoError(t, repo.Save(ctx, sub))
	}

	subs, err := repo.FindAll(ctx)
	assert.NoError(t, err)
	assert.Len(t, subs, 3)
	assert.Equal(t, "11111", subs[0].SubscriberNumber)
	assert.Equal(t, "33333", subs[2].SubscriberNumber)
}

func TestSubscriberRepository_SequentialUpdatesLastWriterWins(t *testing.T) {
	db := newTestDB(t)
	repo := NewSubscriberRepository(db)
	ctx := context.Background()

	sub := seedSubscriber(t, db)
	onu := 1
	assert.NoError(t, sub.ApplyProvisioning("OLT01", "1/1", &onu, aggregate.BrandFurukawa, "AA:BB:CC:DD:EE:01"))
	assert.NoError(t, repo.Update(ctx, sub))

	onu2 := 2
	assert.NoError(t, sub.ApplyProvisioning("OLT02", "2/2", &onu2, aggregate.BrandBDCOM, "AA:BB:CC:DD:EE:02"))
	assert.NoError(t, repo.Update(ctx, sub))

	got, err := repo.FindByID(ctx, sub.ID)
	assert.NoError(t, err)
	assert.Equal(t, "OLT02", got.OLT)
	assert.Equal(t, 2, *got.ONU)
	assert.Equal(t, "AA:BB:CC:DD:EE:07", got.AdjustedMAC)
}

func TestSubscriberRepository_UniqueNumber(t *testing.T) {
	db := newTestDB(t)
	repo := NewSubscriberRepository(db)
	ctx := context.Background()

	seedSubscriber(t, db)

	dup, err := aggregate.NewSubscriber("12345", "otra")
	assert.NoError(t, err)
	assert.Error(t, repo.Save(ctx, dup))
}

func TestUserRepository(t *testing.T) {
	db := newTestDB(t)
	users := NewUserRepository(db)
	ctx := context.Background()

	assert.NoError(t, db.Create(&User{Username: "admin", PasswordHash: "hash-1"}).Error)

	user, err := users.FindByUsername(ctx, "admin")
	assert.NoError(t, err)
	assert.Equal(t, "hash-1", user.PasswordHash)

	missing, err := users.FindByUsername(ctx, "nadie")
	assert.NoError(t, err)
	assert.Nil(t, missing)

	assert.NoError(t, users.UpdatePassword(ctx, "admin", "hash-2"))
	user, err = users.FindByUsername(ctx, "admin")
	assert.NoError(t, err)
	assert.Equal(t, "hash-2", user.PasswordHash)
}
