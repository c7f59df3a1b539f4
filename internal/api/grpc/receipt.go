package grpc

import (
	"context"

	pb "loyalty-ledger-backend/api/v1"
	"loyalty-ledger-backend/internal/service"
)

type ReceiptHandler struct {
	receiptSvc service.ReceiptService
}

func NewReceiptHandler(receiptSvc service.ReceiptService) *ReceiptHandler {
	return &ReceiptHandler{receiptSvc: receiptSvc}
}

// GetUploadUrl issues a presigned URL for a receipt image. The returned key
// is what ProcessCheckout expects as receipt_ref.
func (h *ReceiptHandler) GetUploadUrl(ctx context.Context, req *pb.GetUploadUrlRequest) (*pb.GetUploadUrlResponse, error) {
	if _, err := requireStaff(ctx, req.RestaurantId); err != nil {
		return nil, err
	}
	up, err := h.receiptSvc.GetUploadUrl(ctx, req.RestaurantId, req.Filename, req.ContentType)
	if err != nil {
		return nil, toStatus(ctx, "GetUploadUrl", err)
	}
	return &pb.GetUploadUrlResponse{
		Key:         up.Key,
		UploadUrl:   up.UploadURL,
		DownloadUrl: up.DownloadURL,
		ExpiresAt:   formatTime(up.ExpiresAt),
	}, nil
}
