package webapi

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"abonado-server-go/internal/domain/subscriber/service"
	httptransport "abonado-server-go/internal/transport/http"
)

// editForm 编辑表单请求体，ONU以字符串接收以区分"未填写"与0
type editForm struct {
	OLT       string `json:"olt"`
	Interface string `json:"interface"`
	ONU       string `json:"onu"`
	Brand     string `json:"marca"`
	MAC       string `json:"mac"`
}

// handleSubscriberList 列出全部用户记录
func (s *Service) handleSubscriberList(c *gin.Context) {
	subs, err := s.subscribers.List(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	s.respondSuccess(c, http.StatusOK, subs, "")
}

// handleSubscriberSearch 按用户号码查找，?n_abonado=12345
func (s *Service) handleSubscriberSearch(c *gin.Context) {
	number := c.Query("n_abonado")
	sub, err := s.subscribers.Search(c.Request.Context(), number)
	if err != nil {
		s.respondError(c, err)
		return
	}
	if sub == nil {
		s.respondSuccess(c, http.StatusOK, nil, "no se encontró el abonado "+number)
		return
	}
	s.respondSuccess(c, http.StatusOK, sub, "")
}

// handleSubscriberGet 获取单条记录
func (s *Service) handleSubscriberGet(c *gin.Context) {
	id, ok := s.pathID(c)
	if !ok {
		return
	}

	sub, err := s.subscribers.Get(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	s.respondSuccess(c, http.StatusOK, sub, "")
}

// handleSubscriberEdit 提交编辑事务
func (s *Service) handleSubscriberEdit(c *gin.Context) {
	id, ok := s.pathID(c)
	if !ok {
		return
	}

	var form editForm
	if err := c.ShouldBindJSON(&form); err != nil {
		httptransport.RespondError(c, http.StatusBadRequest, "cuerpo de la petición inválido", nil)
		return
	}

	sub, err := s.subscribers.ApplyEdit(c.Request.Context(), id, service.EditRequest{
		OLT:       form.OLT,
		Interface: form.Interface,
		ONU:       form.ONU,
		Brand:     form.Brand,
		MAC:       form.MAC,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	s.respondSuccess(c, http.StatusOK, sub, "abonado actualizado")
}

// handleSubscriberClear 清空开通字段
func (s *Service) handleSubscriberClear(c *gin.Context) {
	id, ok := s.pathID(c)
	if !ok {
		return
	}

	if err := s.subscribers.Clear(c.Request.Context(), id); err != nil {
		s.respondError(c, err)
		return
	}
	s.respondSuccess(c, http.StatusOK, nil, "datos de aprovisionamiento eliminados")
}

// pathID 解析路径里的记录ID，非法时直接响应400
func (s *Service) pathID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id < 1 {
		httptransport.RespondError(c, http.StatusBadRequest, "identificador inválido", nil)
		return 0, false
	}
	return id, true
}
