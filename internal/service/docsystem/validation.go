package docsystem

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/YugenJarwal13/InternalDMS/internal/config"
	"github.com/YugenJarwal13/InternalDMS/internal/domain"
	docsysSvc "github.com/YugenJarwal13/InternalDMS/internal/domain/services/docsystem"
	"github.com/YugenJarwal13/InternalDMS/internal/pathutil"
)

// nameRule applies the path segment rules to a string field.
var nameRule = validation.By(func(value interface{}) error {
	name, ok := value.(string)
	if !ok {
		return fmt.Errorf("name must be a string")
	}
	return pathutil.ValidateName(name)
})

func validateCreateFolderRequest(req *docsysSvc.CreateFolderRequest) error {
	err := validation.ValidateStruct(req,
		validation.Field(&req.Name, validation.Required, nameRule),
		validation.Field(&req.Remark, validation.RuneLength(0, config.MaxRemarkLength)),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	return nil
}

func validateUploadFilesRequest(req *docsysSvc.UploadFilesRequest) error {
	err := validation.ValidateStruct(req,
		validation.Field(&req.Files, validation.Required, validation.Length(1, config.MaxUploadFiles)),
		validation.Field(&req.Remark, validation.RuneLength(0, config.MaxRemarkLength)),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	return nil
}

func validateUploadFolderStructureRequest(req *docsysSvc.UploadFolderStructureRequest) error {
	err := validation.ValidateStruct(req,
		validation.Field(&req.Entries, validation.Required, validation.Length(1, config.MaxUploadFiles)),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	return nil
}

func validateRenameRequest(req *docsysSvc.RenameRequest) error {
	err := validation.ValidateStruct(req,
		validation.Field(&req.Path, validation.Required),
		validation.Field(&req.NewName, validation.Required, nameRule),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	return nil
}

func validateMoveRequest(req *docsysSvc.MoveRequest) error {
	err := validation.ValidateStruct(req,
		validation.Field(&req.SourcePath, validation.Required),
		validation.Field(&req.DestinationPath, validation.Required),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	return nil
}

func validateListChildrenRequest(req *docsysSvc.ListChildrenRequest) error {
	err := validation.ValidateStruct(req,
		validation.Field(&req.Limit, validation.Min(0)),
		validation.Field(&req.Offset, validation.Min(0)),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	return nil
}

// checkPathLength rejects canonical paths longer than the store accepts.
func checkPathLength(path string) error {
	if len(path) > config.MaxPathLength {
		return &domain.ValidationError{
			Message: fmt.Sprintf("path exceeds maximum length of %d characters", config.MaxPathLength),
		}
	}
	return nil
}
