package service

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"
	"strings"
	"time"

	"abonado-server-go/internal/domain/eventbus"
	"abonado-server-go/internal/domain/subscriber/aggregate"
	"abonado-server-go/internal/domain/subscriber/repository"
	"abonado-server-go/internal/platform/errors"
)

// ONU序号上限：一个OLT接口最多挂128台ONU
const maxONUIndex = 128

var (
	// ErrNotFound 记录不存在
	ErrNotFound = errors.New(errors.KindDomain, "subscriber.lookup", "abonado no encontrado")

	// ErrONUNotInteger ONU字段无法解析为整数
	ErrONUNotInteger = errors.New(errors.KindDomain, "subscriber.edit", "el valor de ONU debe ser un número entero")

	// ErrONURange ONU序号超出1-128
	ErrONURange = errors.New(errors.KindDomain, "subscriber.edit", "el numero maximo de ONU es 128")
)

// SubscriberService 用户记录领域服务：查询、编辑事务与软清除
type SubscriberService struct {
	repo repository.SubscriberRepository
}

// NewSubscriberService 创建用户服务
func NewSubscriberService(repo repository.SubscriberRepository) *SubscriberService {
	return &SubscriberService{repo: repo}
}

// EditRequest 编辑表单提交的原始字段
type EditRequest struct {
	OLT       string
	Interface string
	ONU       string
	Brand     string
	MAC       string
}

// List 列出全部用户记录
func (s *SubscriberService) List(ctx context.Context) ([]*aggregate.Subscriber, error) {
	subs, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.KindDomain, "subscriber.list", "failed to list subscribers", err)
	}
	return subs, nil
}

// Get 根据主键获取记录，不存在时返回 ErrNotFound
func (s *SubscriberService) Get(ctx context.Context, id int) (*aggregate.Subscriber, error) {
	sub, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, errors.Wrap(errors.KindDomain, "subscriber.get", "failed to find subscriber", err)
	}
	if sub == nil {
		return nil, ErrNotFound
	}
	return sub, nil
}

// Search 根据用户号码查找。号码格式非法返回错误；
// 格式合法但不存在时返回 (nil, nil)，由调用方展示"未找到"提示。
func (s *SubscriberService) Search(ctx context.Context, number string) (*aggregate.Subscriber, error) {
	if err := aggregate.ValidateSubscriberNumber(number); err != nil {
		return nil, err
	}

	sub, err := s.repo.FindBySubscriberNumber(ctx, number)
	if err != nil {
		return nil, errors.Wrap(errors.KindDomain, "subscriber.search", "failed to search subscriber", err)
	}
	return sub, nil
}

// ApplyEdit 编辑事务：校验全部字段、重新推导修正MAC，然后一次性提交。
// 任一校验或推导失败都不落库，已提交的记录保持原状。
func (s *SubscriberService) ApplyEdit(ctx context.Context, id int, req EditRequest) (*aggregate.Subscriber, error) {
	sub, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	onu, err := parseONU(req.ONU)
	if err != nil {
		return nil, err
	}

	// 先在副本上套用修改，校验失败时原记录不被触碰
	updated := *sub
	brand := aggregate.NormalizeBrand(req.Brand)
	if err := updated.ApplyProvisioning(req.OLT, req.Interface, onu, brand, strings.TrimSpace(req.MAC)); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, &updated); err != nil {
		return nil, errors.Wrap(errors.KindStorage, "subscriber.edit", "failed to commit subscriber edit", err)
	}

	eventbus.Publish(eventbus.TopicSubscriberUpdated, eventbus.SubscriberUpdatedEvent{
		SubscriberID:     updated.ID,
		SubscriberNumber: updated.SubscriberNumber,
		OLT:              updated.OLT,
		Interface:        updated.Interface,
		ONU:              updated.ONU,
		Brand:            string(updated.Brand),
		MAC:              updated.MAC,
		AdjustedMAC:      updated.AdjustedMAC,
		OccurredAt:       time.Now(),
	})

	return &updated, nil
}

// Clear 软清除：清空开通字段，保留号码与凭证；记录不存在时返回 ErrNotFound
func (s *SubscriberService) Clear(ctx context.Context, id int) error {
	sub, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.ClearProvisioning(ctx, id); err != nil {
		return errors.Wrap(errors.KindStorage, "subscriber.clear", "failed to clear provisioning", err)
	}

	eventbus.Publish(eventbus.TopicSubscriberCleared, eventbus.SubscriberClearedEvent{
		SubscriberID:     sub.ID,
		SubscriberNumber: sub.SubscriberNumber,
		OccurredAt:       time.Now(),
	})
	return nil
}

// SeedFromCSV 启动时批量导入 "号码,凭证" 行，生成未开通记录。
// 已存在的号码跳过，返回新增条数。
func (s *SubscriberService) SeedFromCSV(ctx context.Context, r io.Reader) (int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	created := 0
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return created, errors.Wrap(errors.KindDomain, "subscriber.seed", "failed to read seed row", err)
		}
		if len(row) == 0 {
			continue
		}

		number := strings.TrimSpace(row[0])
		password := ""
		if len(row) > 1 {
			password = strings.TrimSpace(row[1])
		}

		sub, err := aggregate.NewSubscriber(number, password)
		if err != nil {
			return created, err
		}

		existing, err := s.repo.FindBySubscriberNumber(ctx, number)
		if err != nil {
			return created, errors.Wrap(errors.KindDomain, "subscriber.seed", "failed to check existing subscriber", err)
		}
		if existing != nil {
			continue
		}

		if err := s.repo.Save(ctx, sub); err != nil {
			return created, errors.Wrap(errors.KindStorage, "subscriber.seed", "failed to save subscriber", err)
		}
		created++
	}
	return created, nil
}

// parseONU 解析ONU表单值：空串表示未填写，否则必须是1-128的整数
func parseONU(raw string) (*int, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, nil
	}

	value, err := strconv.Atoi(trimmed)
	if err != nil {
		return nil, ErrONUNotInteger
	}
	if value < 1 || value > maxONUIndex {
		return nil, ErrONURange
	}
	return &value, nil
}
