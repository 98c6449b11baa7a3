package verification

import dErrors "civicproof/pkg/domain-errors"

var ErrDuplicate = dErrors.New(dErrors.CodeConflict, "you have already submitted a resolution for this report")
