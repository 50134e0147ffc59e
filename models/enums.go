package models

import (
	"io"
	"strconv"
)

type DeletedMode string

const (
	DeletedModeRecovery DeletedMode = "RECOVERY"
	DeletedModeDelete   DeletedMode = "DELETE"
)

// MarshalGQL writes the enum value for the executor.
func (m DeletedMode) MarshalGQL(w io.Writer) {
	w.Write([]byte(strconv.Quote(string(m))))
}

// DeletedType names one of the soft-deletable entity kinds.
type DeletedType string

const (
	DeletedTypeInventory     DeletedType = "inventory"
	DeletedTypeInventoryType DeletedType = "inventoryType"
	DeletedTypeBrandType     DeletedType = "brandType"
	DeletedTypeBranchType    DeletedType = "branchType"
)

func (t DeletedType) MarshalGQL(w io.Writer) {
	w.Write([]byte(strconv.Quote(string(t))))
}

type FavoriteStatus string

const (
	FavoriteStatusLike    FavoriteStatus = "LIKE"
	FavoriteStatusDefault FavoriteStatus = "DEFAULT"
)

func (s FavoriteStatus) MarshalGQL(w io.Writer) {
	w.Write([]byte(strconv.Quote(string(s))))
}

type UserRole string

const (
	UserRoleAdmin UserRole = "Admin"
	UserRoleStaff UserRole = "Staff"
	// UserRoleAny is the wildcard accepted by route guards: any authenticated role.
	UserRoleAny UserRole = "*"
)

// UploadReason explains an unsuccessful batch import.
type UploadReason string

const (
	UploadReasonDuplicated     UploadReason = "duplicated"
	UploadReasonLost           UploadReason = "lost"
	UploadReasonSomethingWrong UploadReason = "somethingWrong"
	UploadReasonInvalid        UploadReason = "invalid"
	UploadReasonForbidden      UploadReason = "forbidden"
	UploadReasonEmpty          UploadReason = "empty"
)

type EventAction string

const (
	EventActionUpserted    EventAction = "upserted"
	EventActionSoftDeleted EventAction = "softDeleted"
	EventActionRecovered   EventAction = "recovered"
	EventActionHardDeleted EventAction = "hardDeleted"
	EventActionFavorited   EventAction = "favorited"
	EventActionImported    EventAction = "imported"
)
