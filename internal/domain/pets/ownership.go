package pets

import "context"

// OwnerOf expone el ownerUserID de una mascota.
// Se usa para evitar ciclos de imports entre módulos (events -> pets).
func (s *Service) OwnerOf(ctx context.Context, petID string) (string, error) {
	p, err := s.GetByID(ctx, petID)
	if err != nil {
		return "", err
	}
	return p.OwnerUserID, nil
}

// CanManage: dueño o staff.
func CanManage(p Pet, userID string, isStaff bool) bool {
	return isStaff || (userID != "" && p.OwnerUserID == userID)
}
