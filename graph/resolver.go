package graph

import (
	"context"

	"github.com/mmdatafocus/inventory_backend/middlewares"
	"github.com/mmdatafocus/inventory_backend/models"
)

// This file serves as dependency injection for your app, add any dependencies you require here.

type Resolver struct{}

// Response is the {data, status} envelope of every operation. Business
// failures travel in Status; GraphQL errors are reserved for access denial
// and malformed requests.
type Response struct {
	Data   interface{}   `json:"data"`
	Status models.Status `json:"status"`
}

func respond[T any](ctx context.Context, funcName string, data *T, err error) *Response {
	if err != nil {
		return &Response{Status: models.NewStatus(ctx, "resolver.go", funcName, err)}
	}
	return &Response{Data: data, Status: models.StatusSuccess}
}

func respondList[T any](ctx context.Context, funcName string, data []*T, err error) *Response {
	if err != nil {
		return &Response{Status: models.NewStatus(ctx, "resolver.go", funcName, err)}
	}
	if data == nil {
		data = []*T{}
	}
	return &Response{Data: data, Status: models.StatusSuccess}
}

func (r *Resolver) rootResolvers() map[string]rootFunc {
	byId := func(funcName string, fn func(ctx context.Context, id string) (*models.ResponseId, error)) rootFunc {
		return func(ctx context.Context, args *arguments) (interface{}, error) {
			res, err := fn(ctx, args.String("id"))
			return respond(ctx, funcName, res, err), nil
		}
	}
	lookupUpsert := func(funcName string, fn func(ctx context.Context, input *models.NewLookup) (*models.ResponseId, error)) rootFunc {
		return func(ctx context.Context, args *arguments) (interface{}, error) {
			var input models.NewLookup
			if err := args.Decode("input", &input); err != nil {
				return nil, err
			}
			res, err := fn(ctx, &input)
			return respond(ctx, funcName, res, err), nil
		}
	}

	return map[string]rootFunc{
		// queries
		"getInventories": func(ctx context.Context, args *arguments) (interface{}, error) {
			var params models.ParamsInventory
			if err := args.Decode("params", &params); err != nil {
				return nil, err
			}
			res, err := models.GetInventories(ctx, &params)
			return respond(ctx, "GetInventories", res, err), nil
		},
		"getInventory": func(ctx context.Context, args *arguments) (interface{}, error) {
			res, err := models.GetInventory(ctx, args.String("id"))
			return respond(ctx, "GetInventory", res, err), nil
		},
		"getInventoryNames": func(ctx context.Context, args *arguments) (interface{}, error) {
			res, err := models.GetInventoryNames(ctx)
			return respondList(ctx, "GetInventoryNames", res, err), nil
		},
		"getInventoryType": func(ctx context.Context, args *arguments) (interface{}, error) {
			res, err := models.GetInventoryType(ctx, args.String("id"))
			return respond(ctx, "GetInventoryType", res, err), nil
		},
		"getInventoryTypes": func(ctx context.Context, args *arguments) (interface{}, error) {
			var params models.ParamsLookup
			if err := args.Decode("params", &params); err != nil {
				return nil, err
			}
			res, err := models.GetInventoryTypes(ctx, &params)
			return respondList(ctx, "GetInventoryTypes", res, err), nil
		},
		"getInventoryBrand": func(ctx context.Context, args *arguments) (interface{}, error) {
			res, err := models.GetInventoryBrand(ctx, args.String("id"))
			return respond(ctx, "GetInventoryBrand", res, err), nil
		},
		"getInventoryBrands": func(ctx context.Context, args *arguments) (interface{}, error) {
			var params models.ParamsLookup
			if err := args.Decode("params", &params); err != nil {
				return nil, err
			}
			res, err := models.GetInventoryBrands(ctx, &params)
			return respondList(ctx, "GetInventoryBrands", res, err), nil
		},
		"getInventoryBranch": func(ctx context.Context, args *arguments) (interface{}, error) {
			res, err := models.GetInventoryBranch(ctx, args.String("id"))
			return respond(ctx, "GetInventoryBranch", res, err), nil
		},
		"getInventoryBranches": func(ctx context.Context, args *arguments) (interface{}, error) {
			var params models.ParamsLookup
			if err := args.Decode("params", &params); err != nil {
				return nil, err
			}
			res, err := models.GetInventoryBranches(ctx, &params)
			return respondList(ctx, "GetInventoryBranches", res, err), nil
		},
		"getInventoryAllDeleted": func(ctx context.Context, args *arguments) (interface{}, error) {
			res, err := models.GetInventoryAllDeleted(ctx)
			return respond(ctx, "GetInventoryAllDeleted", res, err), nil
		},
		"getUploadFiles": func(ctx context.Context, args *arguments) (interface{}, error) {
			res, err := models.GetUploadFiles(ctx)
			return respondList(ctx, "GetUploadFiles", res, err), nil
		},
		"getUploadFile": func(ctx context.Context, args *arguments) (interface{}, error) {
			res, err := models.GetUploadFile(ctx, args.String("id"))
			return respond(ctx, "GetUploadFile", res, err), nil
		},

		// inventory mutations
		"upsertInventory": func(ctx context.Context, args *arguments) (interface{}, error) {
			var input models.NewInventory
			if err := args.Decode("input", &input); err != nil {
				return nil, err
			}
			res, err := models.UpsertInventory(ctx, &input)
			return respond(ctx, "UpsertInventory", res, err), nil
		},
		"deleteInventory":   byId("DeleteInventory", models.DeleteInventory),
		"favoriteInventory": byId("FavoriteInventory", models.FavoriteInventory),
		"uploadInventory": func(ctx context.Context, args *arguments) (interface{}, error) {
			var input models.UploadInventoryInput
			if err := args.Decode("input", &input); err != nil {
				return nil, err
			}
			res, err := models.ImportInventories(ctx, &input)
			return respond(ctx, "UploadInventory", res, err), nil
		},
		"recoveryHardDeleted": func(ctx context.Context, args *arguments) (interface{}, error) {
			var input models.RecoveryInput
			if err := args.Decode("input", &input); err != nil {
				return nil, err
			}
			res, err := models.RecoveryOrHardDelete(ctx, &input)
			return respond(ctx, "RecoveryHardDeleted", res, err), nil
		},

		// lookup mutations
		"upsertInventoryType":   lookupUpsert("UpsertInventoryType", models.UpsertInventoryType),
		"deleteInventoryType":   byId("DeleteInventoryType", models.DeleteInventoryType),
		"upsertInventoryBrand":  lookupUpsert("UpsertInventoryBrand", models.UpsertInventoryBrand),
		"deleteInventoryBrand":  byId("DeleteInventoryBrand", models.DeleteInventoryBrand),
		"upsertInventoryBranch": lookupUpsert("UpsertInventoryBranch", models.UpsertInventoryBranch),
		"deleteInventoryBranch": byId("DeleteInventoryBranch", models.DeleteInventoryBranch),

		// session
		"signIn": func(ctx context.Context, args *arguments) (interface{}, error) {
			res, err := models.Login(ctx, args.String("username"), args.String("password"))
			return respond(ctx, "SignIn", res, err), nil
		},
		"tokenExpire": func(ctx context.Context, args *arguments) (interface{}, error) {
			res, err := models.RefreshAccessToken(ctx, args.String("refreshToken"))
			return respond(ctx, "TokenExpire", res, err), nil
		},
		"signOut": byId("SignOut", models.SignOut),
		"createUser": func(ctx context.Context, args *arguments) (interface{}, error) {
			var input models.NewUser
			if err := args.Decode("input", &input); err != nil {
				return nil, err
			}
			res, err := models.CreateUser(ctx, &input)
			return respond(ctx, "CreateUser", res, err), nil
		},
		"verifyAccessToken": func(ctx context.Context, args *arguments) (interface{}, error) {
			return respond(ctx, "VerifyAccessToken", models.VerifyAccessToken(args.String("token")), nil), nil
		},
	}
}

// objectResolvers fill an item's references through the request loaders.
func (r *Resolver) objectResolvers() map[string]objectFunc {
	return map[string]objectFunc{
		"Inventory.inventoryType": func(ctx context.Context, obj interface{}) (interface{}, error) {
			item := inventoryOf(obj)
			if item == nil || item.InventoryTypeId == "" {
				return nil, nil
			}
			return middlewares.GetInventoryType(ctx, item.InventoryTypeId)
		},
		"Inventory.brandType": func(ctx context.Context, obj interface{}) (interface{}, error) {
			item := inventoryOf(obj)
			if item == nil || item.BrandTypeId == "" {
				return nil, nil
			}
			return middlewares.GetInventoryBrand(ctx, item.BrandTypeId)
		},
		"Inventory.branch": func(ctx context.Context, obj interface{}) (interface{}, error) {
			item := inventoryOf(obj)
			if item == nil || item.BranchId == "" {
				return nil, nil
			}
			return middlewares.GetInventoryBranch(ctx, item.BranchId)
		},
	}
}

func inventoryOf(obj interface{}) *models.Inventory {
	switch v := obj.(type) {
	case *models.Inventory:
		return v
	case models.Inventory:
		return &v
	}
	return nil
}
