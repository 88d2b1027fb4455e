package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/anupakum/MCP-Payment-idea/internal/capability"
	"github.com/anupakum/MCP-Payment-idea/internal/domain/dispute"

	"github.com/gin-gonic/gin"
)

// DisputeHandler maps resource-style routes onto capabilities so both
// surfaces share validation and error mapping.
type DisputeHandler struct {
	registry *capability.Registry
}

func NewDisputeHandler(r *capability.Registry) *DisputeHandler {
	return &DisputeHandler{registry: r}
}

type verifyRequest struct {
	TransactionID string `json:"transaction_id" binding:"required"`
	CustomerID    string `json:"customer_id" binding:"required"`
	CardNumber    string `json:"card_number" binding:"required"`
}

type outcomeRequest struct {
	Outcome string `json:"outcome" binding:"required"`
}

type listCasesQuery struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=500"`
}

type transactionQuery struct {
	CustomerID string `form:"customer_id"`
	CardNumber string `form:"card_number"`
}

func (h *DisputeHandler) invoke(c *gin.Context, name string, args any) {
	raw, err := json.Marshal(args)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	respond(c, h.registry.Invoke(c.Request.Context(), name, raw))
}

// Create decides a dispute for the transaction in the body. A newly
// created case answers 201.
func (h *DisputeHandler) Create(c *gin.Context) {
	var txn map[string]any
	if err := c.ShouldBindJSON(&txn); err != nil {
		badRequest(c, err.Error())
		return
	}
	raw, err := json.Marshal(capability.ProcessDisputeInput{Transaction: txn})
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	res := h.registry.Invoke(c.Request.Context(), capability.ProcessDispute, raw)
	status := StatusFor(res)
	if res.Success && !existingCase(res) {
		status = http.StatusCreated
	}
	c.JSON(status, res)
}

func existingCase(res capability.Result) bool {
	out, ok := res.Data.(dispute.DisputeOutcome)
	return ok && out.ExistingCase
}

func (h *DisputeHandler) Verify(c *gin.Context) {
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	h.invoke(c, capability.VerifyAndDispute, capability.VerifyAndDisputeInput(req))
}

func (h *DisputeHandler) GetCase(c *gin.Context) {
	h.invoke(c, capability.GetCase, capability.GetCaseInput{CaseID: c.Param("case_id")})
}

func (h *DisputeHandler) UpdateCase(c *gin.Context) {
	var updates map[string]any
	if err := c.ShouldBindJSON(&updates); err != nil {
		badRequest(c, err.Error())
		return
	}
	h.invoke(c, capability.UpdateCase, capability.UpdateCaseInput{CaseID: c.Param("case_id"), Updates: updates})
}

func (h *DisputeHandler) ApplyOutcome(c *gin.Context) {
	var req outcomeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	h.invoke(c, capability.ApplyAcquirerOutcome, capability.ApplyAcquirerOutcomeInput{
		CaseID:  c.Param("case_id"),
		Outcome: req.Outcome,
	})
}

func (h *DisputeHandler) ListCustomerCases(c *gin.Context) {
	var q listCasesQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err.Error())
		return
	}
	h.invoke(c, capability.ListCustomerCases, capability.ListCustomerCasesInput{
		CustomerID: c.Param("customer_id"),
		Limit:      q.Limit,
	})
}

func (h *DisputeHandler) GetCustomer(c *gin.Context) {
	h.invoke(c, capability.CustomerLookup, capability.CustomerLookupInput{CustomerID: c.Param("customer_id")})
}

func (h *DisputeHandler) GetCard(c *gin.Context) {
	h.invoke(c, capability.CardLookup, capability.CardLookupInput{
		CustomerID: c.Param("customer_id"),
		CardNumber: c.Param("card_number"),
	})
}

func (h *DisputeHandler) GetTransaction(c *gin.Context) {
	var q transactionQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err.Error())
		return
	}
	h.invoke(c, capability.TransactionLookup, capability.TransactionLookupInput{
		TransactionID: c.Param("transaction_id"),
		CustomerID:    q.CustomerID,
		CardNumber:    q.CardNumber,
	})
}
