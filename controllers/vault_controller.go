package controllers

import (
	"context"
	"io"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/sentrygate/securevault/chain"
	"github.com/sentrygate/securevault/models"
	"github.com/sentrygate/securevault/utils"
)

// AccessChecker answers whether a wallet is currently entitled to upload.
type AccessChecker interface {
	CheckAccess(ctx context.Context, walletAddress string) chain.AccessStatus
}

// Pinner stores file bytes in content-addressed storage and returns the CID.
type Pinner interface {
	PinFile(ctx context.Context, filename string, r io.Reader) (string, error)
}

// VaultController gates uploads on the on-chain entitlement, pins accepted
// files, and serves per-wallet file history.
type VaultController struct {
	store  *models.FileStore
	oracle AccessChecker
	pinner Pinner
}

// NewVaultController creates a VaultController instance.
func NewVaultController(db *gorm.DB, oracle AccessChecker, pinner Pinner) *VaultController {
	return &VaultController{
		store:  models.NewFileStore(db),
		oracle: oracle,
		pinner: pinner,
	}
}

// Upload handles POST /upload: re-verify entitlement on-chain, pin the file,
// then record the metadata. Each step terminates the request on failure so a
// row is only ever written for a successfully pinned file. The operation is
// not idempotent; resubmitting creates a new record.
func (v *VaultController) Upload(ctx *gin.Context) {
	walletAddress := ctx.PostForm("wallet_address")
	file, header, err := ctx.Request.FormFile("file")
	if err != nil || walletAddress == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": "file and wallet_address are required"})
		return
	}
	defer file.Close()

	reqCtx := ctx.Request.Context()

	// Never trust a client-side access claim.
	status := v.oracle.CheckAccess(reqCtx, walletAddress)
	if !status.CanUpload {
		if status.Err != nil {
			utils.Sugar.Warnw("entitlement check failed",
				"wallet", walletAddress, "error", status.Err)
		}
		ctx.JSON(http.StatusPaymentRequired, gin.H{"message": "access denied: subscription payment required"})
		return
	}

	fileName := filepath.Base(header.Filename)
	cid, err := v.pinner.PinFile(reqCtx, fileName, file)
	if err != nil {
		utils.Sugar.Errorw("pin failed", "wallet", walletAddress, "file", fileName, "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{
			"message": "failed to pin file",
			"error":   err.Error(),
		})
		return
	}

	record, err := v.store.Insert(reqCtx, walletAddress, fileName, cid)
	if err != nil {
		// The pinned content stays orphaned; there is no compensating unpin.
		utils.Sugar.Errorw("metadata insert failed after successful pin",
			"wallet", walletAddress, "cid", cid, "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{
			"message": "failed to store metadata",
			"error":   err.Error(),
		})
		return
	}

	utils.Sugar.Infow("file stored", "wallet", walletAddress, "cid", cid, "db_id", record.ID)
	ctx.JSON(http.StatusCreated, gin.H{
		"message":  "stored to IPFS and database",
		"db_id":    record.ID,
		"ipfs_cid": cid,
	})
}

// MyFiles handles GET /my-files?wallet=<address>: the wallet's records,
// newest first. An unknown wallet yields an empty array, not an error.
func (v *VaultController) MyFiles(ctx *gin.Context) {
	wallet := ctx.Query("wallet")
	if wallet == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": "wallet query parameter is required"})
		return
	}

	records, err := v.store.ListByWallet(ctx.Request.Context(), wallet)
	if err != nil {
		utils.Sugar.Errorw("list files failed", "wallet", wallet, "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, records)
}
