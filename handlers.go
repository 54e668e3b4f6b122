package main

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"kasdana/models"
	"kasdana/pkg/dana"
)

func setupRoutes(r *gin.Engine) {
	r.POST("/register", registerHandler)
	r.POST("/login", loginHandler)

	authGroup := r.Group("")
	authGroup.Use(jwtAuthMiddleware())
	authGroup.GET("/me", meHandler)

	authGroup.GET("/dana/accounts", listAccountsHandler)
	authGroup.POST("/dana/accounts", createAccountHandler)
	authGroup.GET("/dana/accounts/:id", getAccountHandler)
	authGroup.POST("/dana/accounts/:id/modal-awal", modalAwalHandler)
	authGroup.POST("/dana/income", incomeHandler)
	authGroup.POST("/dana/expense", expenseHandler)
	authGroup.POST("/dana/transfer", transferHandler)
	authGroup.GET("/dana/history", historyHandler)

	authGroup.POST("/pembelian", createPembelianHandler)
	authGroup.GET("/pembelian", listPembelianHandler)
	authGroup.GET("/pembelian/:id", getPembelianHandler)
	authGroup.POST("/pembelian/:id/submit", submitPembelianHandler)
	authGroup.POST("/pembelian/:id/review", reviewPembelianHandler)
	authGroup.POST("/pembelian/:id/reject", rejectPembelianHandler)
	authGroup.POST("/pembelian/:id/pay", payPembelianHandler)
	authGroup.PUT("/pembelian/:id", updatePembelianHandler)
	authGroup.DELETE("/pembelian/:id", deletePembelianHandler)
}

// respondDanaError maps engine failures onto HTTP statuses. Unexpected errors
// are logged and surfaced as a generic 500 so no partial state is implied.
func respondDanaError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, dana.ErrAccountNotFound),
		errors.Is(err, dana.ErrBatchNotFound),
		errors.Is(err, dana.ErrItemNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, dana.ErrInsufficientFunds),
		errors.Is(err, dana.ErrNoApprovedItems):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, dana.ErrInvalidBatchState),
		errors.Is(err, dana.ErrAlreadyCapitalized):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, dana.ErrSameAccount),
		errors.Is(err, dana.ErrInvalidAmount),
		errors.Is(err, dana.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		appLogger.Error("dana operation failed", zap.Error(err), zap.String("path", c.FullPath()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "operation failed"})
	}
}

func registerHandler(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := RegisterUser(req.Username, req.Password); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "user registered successfully"})
}

func loginHandler(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	user, err := Authenticate(req.Username, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}
	tokenString, err := issueToken(user, jwtExpireHours)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "login successful", "token": tokenString})
}

func meHandler(c *gin.Context) {
	usernameVal, _ := c.Get("username")
	if usernameVal == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "context missing username"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"username": usernameVal.(string)})
}

// ===== fund accounts =====

func listAccountsHandler(c *gin.Context) {
	f := dana.AccountFilter{
		Kind:       models.FundKind(c.Query("kind")),
		ActiveOnly: c.Query("active") == "true",
	}
	accounts, err := dana.ListAccounts(db, f)
	if err != nil {
		respondDanaError(c, err)
		return
	}
	c.JSON(http.StatusOK, accounts)
}

func createAccountHandler(c *gin.Context) {
	var req struct {
		Name        string `json:"name" binding:"required"`
		AccountName string `json:"account_name"`
		AccountNo   string `json:"account_no"`
		BankName    string `json:"bank_name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	acc, err := dana.CreateAccount(db, dana.NewAccount{
		Name:        req.Name,
		AccountName: req.AccountName,
		AccountNo:   req.AccountNo,
		BankName:    req.BankName,
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, acc)
}

func getAccountHandler(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	acc, err := dana.FindAccount(db, id)
	if err != nil {
		respondDanaError(c, err)
		return
	}
	summary, err := dana.AccountSummary(db, acc.ID)
	if err != nil {
		respondDanaError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"account": acc, "summary": summary})
}

func modalAwalHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	id, ok := paramID(c)
	if !ok {
		return
	}
	var req struct {
		Amount decimal.Decimal `json:"amount" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	entry, err := dana.SeedInitialCapital(db, id, req.Amount, &user.ID)
	if err != nil {
		respondDanaError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

// resolveAccountRef resolves either an explicit account id or a singleton kind
// (tunai/bank), creating the singleton lazily on first use.
func resolveAccountRef(accountID *uint, kind string) (uint, error) {
	if accountID != nil {
		acc, err := dana.FindAccount(db, *accountID)
		if err != nil {
			return 0, err
		}
		return acc.ID, nil
	}
	if kind != "" {
		acc, err := dana.GetOrCreateSingleton(db, models.FundKind(kind))
		if err != nil {
			return 0, err
		}
		return acc.ID, nil
	}
	return 0, dana.ErrAccountNotFound
}

func incomeHandler(c *gin.Context) {
	recordMovementHandler(c, true)
}

func expenseHandler(c *gin.Context) {
	recordMovementHandler(c, false)
}

func recordMovementHandler(c *gin.Context, income bool) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	var req struct {
		AccountID   *uint           `json:"account_id"`
		AccountKind string          `json:"account_kind"`
		Amount      decimal.Decimal `json:"amount" binding:"required"`
		Description string          `json:"description"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	accountID, err := resolveAccountRef(req.AccountID, req.AccountKind)
	if err != nil {
		respondDanaError(c, err)
		return
	}
	var entry *models.LedgerEntry
	if income {
		entry, err = dana.RecordIncome(db, accountID, req.Amount, req.Description, &user.ID)
	} else {
		entry, err = dana.RecordExpense(db, accountID, req.Amount, req.Description, &user.ID)
	}
	if err != nil {
		respondDanaError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

func transferHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	var req struct {
		FromAccountID uint            `json:"from_account_id" binding:"required"`
		ToAccountID   uint            `json:"to_account_id" binding:"required"`
		Amount        decimal.Decimal `json:"amount" binding:"required"`
		Description   string          `json:"description"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	res, err := dana.Transfer(db, req.FromAccountID, req.ToAccountID, req.Amount, req.Description, &user.ID)
	if err != nil {
		respondDanaError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"out": res.Out, "in": res.In})
}

func historyHandler(c *gin.Context) {
	f := dana.HistoryFilter{
		Period: c.Query("period"),
		Kind:   models.EntryKind(c.Query("kind")),
	}
	if v := c.Query("account_id"); v != "" && v != "all" {
		parsed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid account_id"})
			return
		}
		id := uint(parsed)
		f.AccountID = &id
	}
	if v := c.Query("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid from timestamp"})
			return
		}
		f.From = &t
	}
	if v := c.Query("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid to timestamp"})
			return
		}
		f.To = &t
	}
	f.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	f.PageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", strconv.Itoa(defaultPageSize)))

	page, err := dana.QueryHistory(db, f)
	if err != nil {
		respondDanaError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// ===== purchase batches =====

type itemReq struct {
	Nama        string          `json:"nama" binding:"required"`
	Qty         int             `json:"qty" binding:"required"`
	HargaSatuan decimal.Decimal `json:"harga_satuan" binding:"required"`
	Status      string          `json:"status"`
}

func createPembelianHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	var req struct {
		Items []itemReq `json:"items" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	items := make([]dana.NewItem, len(req.Items))
	for i, it := range req.Items {
		items[i] = dana.NewItem{Nama: it.Nama, Qty: it.Qty, HargaSatuan: it.HargaSatuan}
	}
	batch, err := dana.CreateBatch(db, items, user.ID)
	if err != nil {
		respondDanaError(c, err)
		return
	}
	c.JSON(http.StatusOK, batch)
}

func listPembelianHandler(c *gin.Context) {
	f := dana.BatchFilter{Status: models.BatchStatus(c.Query("status"))}
	f.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	f.PageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", strconv.Itoa(defaultPageSize)))
	batches, total, err := dana.ListBatches(db, f)
	if err != nil {
		respondDanaError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"batches": batches, "total": total})
}

func getPembelianHandler(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	batch, err := dana.FindBatch(db, id)
	if err != nil {
		respondDanaError(c, err)
		return
	}
	c.JSON(http.StatusOK, batch)
}

func submitPembelianHandler(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	batch, err := dana.SubmitBatch(db, id)
	if err != nil {
		respondDanaError(c, err)
		return
	}
	c.JSON(http.StatusOK, batch)
}

func reviewPembelianHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	id, ok := paramID(c)
	if !ok {
		return
	}
	var req struct {
		Items []struct {
			ItemID uint `json:"item_id" binding:"required"`
			Terima bool `json:"terima"`
		} `json:"items" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	decisions := make([]dana.ItemDecision, len(req.Items))
	for i, d := range req.Items {
		decisions[i] = dana.ItemDecision{ItemID: d.ItemID, Terima: d.Terima}
	}
	batch, err := dana.ReviewItems(db, id, decisions, user.ID)
	if err != nil {
		respondDanaError(c, err)
		return
	}
	c.JSON(http.StatusOK, batch)
}

func rejectPembelianHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	id, ok := paramID(c)
	if !ok {
		return
	}
	batch, err := dana.RejectBatch(db, id, user.ID)
	if err != nil {
		respondDanaError(c, err)
		return
	}
	c.JSON(http.StatusOK, batch)
}

func payPembelianHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	id, ok := paramID(c)
	if !ok {
		return
	}
	var req struct {
		AccountID   *uint  `json:"account_id"`
		AccountKind string `json:"account_kind"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	accountID, err := resolveAccountRef(req.AccountID, req.AccountKind)
	if err != nil {
		respondDanaError(c, err)
		return
	}
	batch, err := dana.PayBatch(db, id, accountID, user.ID)
	if err != nil {
		respondDanaError(c, err)
		return
	}
	c.JSON(http.StatusOK, batch)
}

func updatePembelianHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	id, ok := paramID(c)
	if !ok {
		return
	}
	var req struct {
		AccountID        *uint     `json:"account_id"`
		StatusPembayaran *string   `json:"status_pembayaran"`
		Items            []itemReq `json:"items"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	upd := dana.BatchUpdate{AccountID: req.AccountID}
	if req.StatusPembayaran != nil {
		s := models.PaymentStatus(*req.StatusPembayaran)
		upd.StatusPembayaran = &s
	}
	if req.Items != nil {
		upd.Items = make([]dana.ReplacementItem, len(req.Items))
		for i, it := range req.Items {
			upd.Items[i] = dana.ReplacementItem{
				Nama:        it.Nama,
				Qty:         it.Qty,
				HargaSatuan: it.HargaSatuan,
				Status:      models.ItemStatus(it.Status),
			}
		}
	}
	batch, err := dana.UpdateBatch(db, id, upd, user.ID)
	if err != nil {
		respondDanaError(c, err)
		return
	}
	c.JSON(http.StatusOK, batch)
}

func deletePembelianHandler(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	if err := dana.DeleteBatch(db, id); err != nil {
		respondDanaError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "pembelian deleted"})
}

func paramID(c *gin.Context) (uint, bool) {
	parsed, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || parsed == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return uint(parsed), true
}
